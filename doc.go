// Package casechat is an AI-assisted chat layer for case-management
// systems, built on Postgres and the Anthropic API.
//
// Its centerpiece is conversation history optimization: once a chat has
// enough turns, completed tool-call sequences in the older part of the
// thread are grouped, summarized with a small model, and replaced with
// short summaries, while the recent interaction window stays verbatim.
// Summaries are cached by content hash so repeated tool calls never pay
// for a second model round trip.
//
// The root package exposes a Client wiring the pieces together:
//
//	client, err := casechat.NewClient(&casechat.ClientConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	    Pool:   pool,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	messages, result, err := client.OptimizeChat(ctx, chatID)
//
// The subpackages are usable on their own: compaction holds the
// optimizer and can rewrite in-memory threads without any persistence,
// storage holds the Postgres store, hooks holds observer registration,
// metrics holds a Prometheus sink, and render turns threads into
// sanitized HTML.
package casechat
