// Package render turns chat transcripts into sanitized HTML fragments
// for the case-management UI. Message text is treated as markdown; the
// output is safe to embed without further escaping.
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/relaydesk/casechat/types"
)

// Renderer converts messages to HTML.
type Renderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// New creates a Renderer with GitHub-flavored markdown and a UGC
// sanitization policy.
func New() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Message renders one message as an HTML fragment.
func (r *Renderer) Message(msg *types.Message) (template.HTML, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<div class="message message-%s">`, html.EscapeString(string(msg.Role)))
	for _, part := range msg.Parts {
		fragment, err := r.part(part)
		if err != nil {
			return "", err
		}
		buf.WriteString(fragment)
	}
	buf.WriteString(`</div>`)

	return template.HTML(buf.String()), nil
}

// Thread renders a whole message sequence.
func (r *Renderer) Thread(messages []*types.Message) (template.HTML, error) {
	var buf bytes.Buffer
	for _, msg := range messages {
		fragment, err := r.Message(msg)
		if err != nil {
			return "", err
		}
		buf.WriteString(string(fragment))
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) part(part types.Part) (string, error) {
	switch p := part.(type) {
	case *types.TextPart:
		var out bytes.Buffer
		if err := r.markdown.Convert([]byte(p.Text), &out); err != nil {
			return "", fmt.Errorf("markdown convert: %w", err)
		}
		safe := r.policy.SanitizeBytes(out.Bytes())
		return `<div class="part part-text">` + string(safe) + `</div>`, nil

	case *types.ToolPart:
		return r.toolPart(p), nil

	default:
		return "", nil
	}
}

func (r *Renderer) toolPart(p *types.ToolPart) string {
	name := html.EscapeString(p.ToolName)
	switch {
	case p.State == types.ToolStateOutputError:
		return fmt.Sprintf(`<div class="part part-tool part-tool-error">%s: %s</div>`,
			name, html.EscapeString(p.ErrorText))
	case p.State.IsOutput():
		return fmt.Sprintf(`<div class="part part-tool"><span class="tool-name">%s</span><pre>%s</pre></div>`,
			name, html.EscapeString(string(p.Output)))
	default:
		return fmt.Sprintf(`<div class="part part-tool part-tool-pending">%s</div>`, name)
	}
}
