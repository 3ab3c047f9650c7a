// Package hooks provides observer registration points around history
// optimization. Hooks are for observability and policy; an erroring hook
// aborts the surrounding operation, so implementations should be cheap.
package hooks

import (
	"context"
	"sync"

	"github.com/relaydesk/casechat/compaction"
	"github.com/relaydesk/casechat/types"
)

// BeforeOptimizationHook is called before a chat's history is optimized.
type BeforeOptimizationHook func(ctx context.Context, chatID string, messages []*types.Message) error

// AfterOptimizationHook is called after an optimization completes.
type AfterOptimizationHook func(ctx context.Context, chatID string, result *compaction.Result) error

// SummaryGeneratedHook is called when a tool-call summary resolves.
// Parameters: ctx, toolCallID, summaryText, fromCache.
type SummaryGeneratedHook func(ctx context.Context, toolCallID, summaryText string, fromCache bool) error

// Registry holds all registered hooks
type Registry struct {
	mu                 sync.RWMutex
	beforeOptimization []BeforeOptimizationHook
	afterOptimization  []AfterOptimizationHook
	summaryGenerated   []SummaryGeneratedHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		beforeOptimization: []BeforeOptimizationHook{},
		afterOptimization:  []AfterOptimizationHook{},
		summaryGenerated:   []SummaryGeneratedHook{},
	}
}

// OnBeforeOptimization registers a hook to be called before optimization
func (r *Registry) OnBeforeOptimization(hook BeforeOptimizationHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeOptimization = append(r.beforeOptimization, hook)
}

// OnAfterOptimization registers a hook to be called after optimization
func (r *Registry) OnAfterOptimization(hook AfterOptimizationHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterOptimization = append(r.afterOptimization, hook)
}

// OnSummaryGenerated registers a hook to be called when a summary resolves
func (r *Registry) OnSummaryGenerated(hook SummaryGeneratedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaryGenerated = append(r.summaryGenerated, hook)
}

// TriggerBeforeOptimization calls all registered before-optimization hooks
func (r *Registry) TriggerBeforeOptimization(ctx context.Context, chatID string, messages []*types.Message) error {
	r.mu.RLock()
	hooks := make([]BeforeOptimizationHook, len(r.beforeOptimization))
	copy(hooks, r.beforeOptimization)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, chatID, messages); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterOptimization calls all registered after-optimization hooks
func (r *Registry) TriggerAfterOptimization(ctx context.Context, chatID string, result *compaction.Result) error {
	r.mu.RLock()
	hooks := make([]AfterOptimizationHook, len(r.afterOptimization))
	copy(hooks, r.afterOptimization)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, chatID, result); err != nil {
			return err
		}
	}
	return nil
}

// TriggerSummaryGenerated calls all registered summary hooks
func (r *Registry) TriggerSummaryGenerated(ctx context.Context, toolCallID, summaryText string, fromCache bool) error {
	r.mu.RLock()
	hooks := make([]SummaryGeneratedHook, len(r.summaryGenerated))
	copy(hooks, r.summaryGenerated)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, toolCallID, summaryText, fromCache); err != nil {
			return err
		}
	}
	return nil
}
