package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"
)

// summarySystemPrompt instructs the model to answer with a single JSON
// object so the response can be parsed without a schema round-trip.
const summarySystemPrompt = `You summarize tool executions inside a case-management chat so older history can be compacted.

Given one tool call (its arguments and results) plus a little surrounding conversation, respond with a single JSON object and nothing else:

{"summaryText": "...", "shortTitle": "..."}

- summaryText: one or two sentences, at most 300 characters, describing what the tool call accomplished and the key facts it produced. Plain language, past tense, no markdown.
- shortTitle: at most 6 words naming the subject of the work.

Do not invent information that is not in the input.`

// AnthropicSummarizer implements Summarizer with Claude's streaming API.
type AnthropicSummarizer struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewAnthropicSummarizer creates a Summarizer backed by the given
// Anthropic client. Temperature is the determinism knob; zero keeps
// summaries as stable as the model allows.
func NewAnthropicSummarizer(client *anthropic.Client, model string, maxTokens int, temperature float64) *AnthropicSummarizer {
	return &AnthropicSummarizer{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Summarize generates a structured summary for the prompt.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, prompt string) (*Summary, error) {
	stream := s.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   int64(s.maxTokens),
		Temperature: anthropic.Float(s.temperature),
		System: []anthropic.TextBlockParam{
			{Text: summarySystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("%w: failed to accumulate stream: %v", ErrSummarizationFailed, err)
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	var response strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			response.WriteString(text.Text)
		}
	}

	return parseSummaryResponse(response.String())
}

// parseSummaryResponse extracts the structured summary from the model's
// reply. The model is told to emit bare JSON, but fenced or prefixed
// output is tolerated; a reply with no usable JSON is treated as plain
// summary text.
func parseSummaryResponse(reply string) (*Summary, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("%w: empty response from summarizer", ErrSummarizationFailed)
	}

	candidate := reply
	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			candidate = candidate[start : end+1]
		}
	}

	if gjson.Valid(candidate) {
		parsed := gjson.Parse(candidate)
		if text := parsed.Get("summaryText").String(); text != "" {
			return &Summary{
				SummaryText: text,
				ShortTitle:  parsed.Get("shortTitle").String(),
			}, nil
		}
	}

	return &Summary{SummaryText: reply}, nil
}
