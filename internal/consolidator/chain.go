package consolidator

import "reflect"

// Chain presents two consolidators as a single stage: everything produced by
// first is fed straight into second, and the chain's own notification re-fires
// whenever second produces. Chain itself satisfies Consolidator, so arbitrary
// pipelines are built as nested pairs: NewChain(a, NewChain(b, c)).
//
// The chain does not own the stages' lifetimes; it only wires them. Wiring is
// validated once, at construction, so the per-value path carries no type
// checks.
type Chain struct {
	first  Consolidator
	second Consolidator

	// forwardErr captures an error from second.Update raised while first's
	// notification handler runs inside Update. Single-writer, like the
	// stages themselves.
	forwardErr error
}

// NewChain wires first's output into second's input. It fails with
// *TypeMismatchError when the declared types disagree; on failure nothing is
// wired and no chain is produced. The subscription is permanent.
func NewChain(first, second Consolidator) (*Chain, error) {
	if first.OutputType() != second.InputType() {
		return nil, &TypeMismatchError{
			Output: first.OutputType(),
			Input:  second.InputType(),
		}
	}
	c := &Chain{first: first, second: second}
	first.OnConsolidated(func(v interface{}) {
		if err := second.Update(v); err != nil {
			c.forwardErr = err
		}
	})
	return c, nil
}

// InputType reports the first stage's declared input type.
func (c *Chain) InputType() reflect.Type { return c.first.InputType() }

// OutputType reports the second stage's declared output type.
func (c *Chain) OutputType() reflect.Type { return c.second.OutputType() }

// Update forwards v unchanged into the first stage, which synchronously
// drives the rest of the chain before Update returns. Errors from either
// stage propagate unwrapped.
func (c *Chain) Update(v interface{}) error {
	c.forwardErr = nil
	if err := c.first.Update(v); err != nil {
		return err
	}
	return c.forwardErr
}

// Current reads through to the second stage's slot; it is absent until the
// second stage has produced.
func (c *Chain) Current() (interface{}, bool) { return c.second.Current() }

// OnConsolidated registers fn on the second stage, so the chain's
// notification fires exactly when second's does.
func (c *Chain) OnConsolidated(fn func(v interface{})) {
	c.second.OnConsolidated(fn)
}

// Flush force-closes open buckets front to back, so a partial bar in the
// first stage still rolls into the second before it flushes.
func (c *Chain) Flush() {
	if f, ok := c.first.(Flusher); ok {
		f.Flush()
	}
	if f, ok := c.second.(Flusher); ok {
		f.Flush()
	}
}
