// Package compaction keeps long-running chat threads within a usable
// context budget. It detects completed tool-call sequences in the older
// portion of a thread, replaces them with short machine-generated
// summaries, and leaves the recent interaction window untouched.
//
// # Pipeline
//
// A single optimization call runs four stages:
//
//   - Cutoff detection: the thread is scanned backward to find the
//     boundary preserving the most recent user turns. Threads without two
//     completed user turns are returned unchanged.
//
//   - Tool-call grouping: messages before the cutoff are scanned backward,
//     partitioning tool parts into per-call records. Settled requests are
//     replaced with placeholder text parts; responses stay visible.
//     Requests whose outcome was never observed are preserved verbatim,
//     since summarizing a call with an unknown outcome could fabricate
//     information.
//
//   - Summary resolution: each record resolves concurrently. A canonical
//     content hash deduplicates generation through a bounded LRU cache;
//     misses invoke the Summarizer capability with a bounded prompt. Any
//     failure degrades to a deterministic fallback string, never failing
//     the batch.
//
//   - Reassembly: the rewritten prefix is concatenated with the preserved
//     suffix, keeping relative message order.
//
// # Usage
//
// Create an Optimizer with a summarization capability:
//
//	summarizer := compaction.NewAnthropicSummarizer(&client,
//	    compaction.DefaultSummarizerModel, 1024, 0)
//	opt := compaction.New(summarizer, nil, nil, logger)
//
//	optimized, result, err := opt.Optimize(ctx, messages)
//	if err != nil {
//	    // degrade: send the unabridged history
//	    optimized = messages
//	}
//
// # Failure model
//
// Summarization and persistence failures are caught per record and
// degrade locally. Only a structural failure in cutoff or grouping
// propagates, wrapped with diagnostic context; callers are expected to
// fall back to the original sequence rather than fail the user-visible
// request.
package compaction
