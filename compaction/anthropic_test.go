package compaction

import (
	"errors"
	"testing"
)

func TestParseSummaryResponse(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantText  string
		wantTitle string
	}{
		{
			name:      "bare json",
			reply:     `{"summaryText": "Searched cases.", "shortTitle": "Case search"}`,
			wantText:  "Searched cases.",
			wantTitle: "Case search",
		},
		{
			name:      "fenced json",
			reply:     "```json\n{\"summaryText\": \"Searched cases.\", \"shortTitle\": \"Case search\"}\n```",
			wantText:  "Searched cases.",
			wantTitle: "Case search",
		},
		{
			name:      "prefixed json",
			reply:     `Here is the summary: {"summaryText": "Searched cases.", "shortTitle": "Case search"}`,
			wantText:  "Searched cases.",
			wantTitle: "Case search",
		},
		{
			name:     "plain text fallback",
			reply:    "The tool searched cases and found three filings.",
			wantText: "The tool searched cases and found three filings.",
		},
		{
			name:     "json without summaryText falls back to raw reply",
			reply:    `{"title": "wrong shape"}`,
			wantText: `{"title": "wrong shape"}`,
		},
		{
			name:     "missing title tolerated",
			reply:    `{"summaryText": "Searched cases."}`,
			wantText: "Searched cases.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := parseSummaryResponse(tt.reply)
			if err != nil {
				t.Fatalf("parseSummaryResponse: %v", err)
			}
			if summary.SummaryText != tt.wantText {
				t.Errorf("SummaryText = %q, want %q", summary.SummaryText, tt.wantText)
			}
			if summary.ShortTitle != tt.wantTitle {
				t.Errorf("ShortTitle = %q, want %q", summary.ShortTitle, tt.wantTitle)
			}
		})
	}
}

func TestParseSummaryResponse_Empty(t *testing.T) {
	_, err := parseSummaryResponse("   ")
	if !errors.Is(err, ErrSummarizationFailed) {
		t.Errorf("err = %v, want ErrSummarizationFailed", err)
	}
}
