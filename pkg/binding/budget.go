package binding

import (
	"github.com/vango-dev/rx/pkg/scheduler"
)

// Budget caps how many times a single binding may run per loop tick.
// Runs beyond the cap are deferred to the next macrotask instead of running
// inline, which turns a runaway update cascade into a paced one.
//
// A nil *Budget allows every run.
type Budget struct {
	maxRunsPerTick int

	// runs counts runs per binding ID during the current tick.
	runs     map[uint64]int
	deferred int
}

// BudgetStats reports budget usage.
type BudgetStats struct {
	// BindingsThisTick is the number of bindings that ran this tick.
	BindingsThisTick int

	// Deferred is the total number of runs pushed to a later tick.
	Deferred int
}

// NewBudget creates a budget of maxRunsPerTick runs per binding and resets
// it at the start of every macrotask of loop. A non-positive limit returns nil.
func NewBudget(loop *scheduler.Loop, maxRunsPerTick int) *Budget {
	if maxRunsPerTick <= 0 {
		return nil
	}
	b := &Budget{
		maxRunsPerTick: maxRunsPerTick,
		runs:           make(map[uint64]int),
	}
	if loop != nil {
		loop.OnTick(b.ResetTick)
	}
	return b
}

// allow records a run of binding id and reports whether it is within budget.
func (b *Budget) allow(id uint64) bool {
	if b == nil {
		return true
	}
	if b.runs[id] >= b.maxRunsPerTick {
		b.deferred++
		return false
	}
	b.runs[id]++
	return true
}

// ResetTick clears the per-tick counters.
func (b *Budget) ResetTick() {
	if b == nil {
		return
	}
	clear(b.runs)
}

// Stats returns current usage.
func (b *Budget) Stats() BudgetStats {
	if b == nil {
		return BudgetStats{}
	}
	return BudgetStats{
		BindingsThisTick: len(b.runs),
		Deferred:         b.deferred,
	}
}
