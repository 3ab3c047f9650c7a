package render

import (
	"strings"
	"testing"

	"github.com/relaydesk/casechat/internal/testutil"
	"github.com/relaydesk/casechat/types"
)

func TestRenderer_MarkdownText(t *testing.T) {
	r := New()

	html, err := r.Message(testutil.AssistantText("Here is **the filing** you asked for."))
	if err != nil {
		t.Fatalf("Message: %v", err)
	}

	s := string(html)
	if !strings.Contains(s, "<strong>the filing</strong>") {
		t.Errorf("markdown not rendered: %s", s)
	}
	if !strings.Contains(s, `class="message message-assistant"`) {
		t.Errorf("role class missing: %s", s)
	}
}

func TestRenderer_SanitizesScripts(t *testing.T) {
	r := New()

	html, err := r.Message(testutil.UserMsg(`hello <script>alert("x")</script> world`))
	if err != nil {
		t.Fatalf("Message: %v", err)
	}

	if strings.Contains(string(html), "<script>") {
		t.Errorf("script tag survived sanitization: %s", html)
	}
}

func TestRenderer_ToolParts(t *testing.T) {
	r := New()

	tests := []struct {
		name string
		part types.Part
		want string
	}{
		{
			name: "output",
			part: testutil.ToolResult("c1", "search_cases", map[string]any{"hits": 3}),
			want: `<span class="tool-name">search_cases</span>`,
		},
		{
			name: "error",
			part: testutil.ToolError("c1", "fetch", "connection refused"),
			want: "fetch: connection refused",
		},
		{
			name: "pending",
			part: testutil.ToolRequest("c1", "lookup", nil),
			want: `part-tool-pending`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := r.Message(testutil.AssistantParts(tt.part))
			if err != nil {
				t.Fatalf("Message: %v", err)
			}
			if !strings.Contains(string(html), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, html)
			}
		})
	}
}

func TestRenderer_ToolOutputEscaped(t *testing.T) {
	r := New()

	part := testutil.ToolResult("c1", "fetch_page", "<script>bad()</script>")
	html, err := r.Message(testutil.AssistantParts(part))
	if err != nil {
		t.Fatalf("Message: %v", err)
	}

	if strings.Contains(string(html), "<script>") {
		t.Errorf("tool output not escaped: %s", html)
	}
}

func TestRenderer_Thread(t *testing.T) {
	r := New()

	html, err := r.Thread([]*types.Message{
		testutil.UserMsg("hi"),
		testutil.AssistantText("hello"),
	})
	if err != nil {
		t.Fatalf("Thread: %v", err)
	}

	s := string(html)
	if strings.Count(s, `<div class="message`) != 2 {
		t.Errorf("thread output:\n%s", s)
	}
	if strings.Index(s, "message-user") > strings.Index(s, "message-assistant") {
		t.Error("messages rendered out of order")
	}
}
