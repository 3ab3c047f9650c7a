package compaction

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/relaydesk/casechat/types"
)

// canonicalPart is the normal form a tool part is reduced to before
// hashing. Only content-bearing fields participate; transient identifiers
// do not, so structurally identical sequences share a key.
type canonicalPart struct {
	Type     string `json:"type"`
	State    string `json:"state"`
	ToolName string `json:"toolName"`
	Content  string `json:"content"`
}

// contentHash computes the canonical digest of a record's request and
// response content. The normal-form list is sorted by (type, content)
// before encoding, so the key is stable under part reordering. Collision
// resistance, not secrecy, is the requirement; sha256 is sufficient.
func contentHash(rec *ToolCallRecord) string {
	parts := make([]canonicalPart, 0, len(rec.ToolRequest)+len(rec.ToolResult))

	for _, p := range rec.ToolRequest {
		parts = append(parts, canonicalPart{
			Type:     "tool-request",
			State:    string(p.State),
			ToolName: p.ToolName,
			Content:  string(p.Input),
		})
	}
	for _, p := range rec.ToolResult {
		content := string(p.Output)
		if p.State == types.ToolStateOutputError {
			content = p.ErrorText
		}
		parts = append(parts, canonicalPart{
			Type:     "tool-result",
			State:    string(p.State),
			ToolName: p.ToolName,
			Content:  content,
		})
	}

	sort.Slice(parts, func(i, j int) bool {
		if parts[i].Type != parts[j].Type {
			return parts[i].Type < parts[j].Type
		}
		return parts[i].Content < parts[j].Content
	})

	encoded, err := json.Marshal(parts)
	if err != nil {
		// Normal forms are plain strings; marshaling cannot realistically
		// fail, but a degraded key is still a valid cache key.
		encoded = []byte(rec.ToolCallID)
	}

	return fmt.Sprintf("%x", sha256.Sum256(encoded))
}
