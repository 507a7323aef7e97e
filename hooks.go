package conflictmap

import (
	"sync"
	"time"

	"github.com/agentstation/conflictmap/pkg/conflicts"
)

// Pipeline stages reported to StageHook.
const (
	StageCandidates  = "candidates"
	StageConsolidate = "consolidate"
	StageValidate    = "validate"
)

// StageEvent describes a finished pipeline stage.
type StageEvent struct {
	RunID    string
	Stage    string
	Count    int // records leaving the stage
	Duration time.Duration
}

// Hook function types for pipeline events
type (
	// StageHook is called after each pipeline stage completes
	StageHook func(StageEvent)

	// ConflictHook is called for every conflict in the final result, in order
	ConflictHook func(conflicts.ConflictRecord)
)

// hooks manages event callbacks for analysis runs
type hooks struct {
	mu         sync.RWMutex
	onStage    []StageHook
	onConflict []ConflictHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnStage registers a callback for completed stages
func (h *hooks) OnStage(fn StageHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onStage = append(h.onStage, fn)
}

// OnConflict registers a callback for emitted conflicts
func (h *hooks) OnConflict(fn ConflictHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConflict = append(h.onConflict, fn)
}

func (h *hooks) triggerStage(e StageEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onStage {
		hook(e)
	}
}

// triggerConflicts hands each hook a copy so callbacks cannot mutate the result.
func (h *hooks) triggerConflicts(records []conflicts.ConflictRecord) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onConflict {
		for _, r := range records {
			hook(r.Clone())
		}
	}
}
