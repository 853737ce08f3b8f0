package consolidator

import (
	"fmt"
	"reflect"
)

// Consolidator is the capability contract every consolidation stage exposes:
// one ingestion operation, the most recently produced value, declared
// input/output types, and a synchronous "bar closed" notification. Concrete
// stages own their internal buffering; callers never inspect it.
type Consolidator interface {
	// InputType is the concrete type Update accepts.
	InputType() reflect.Type
	// OutputType is the concrete type the stage produces.
	OutputType() reflect.Type
	// Update ingests one value. Production is observed through the
	// OnConsolidated handlers, which fire inline before Update returns.
	Update(v interface{}) error
	// Current returns the most recently produced value, or false if the
	// stage has not produced anything yet.
	Current() (interface{}, bool)
	// OnConsolidated registers a handler invoked with every produced value.
	// Registration is permanent for the stage's lifetime.
	OnConsolidated(fn func(v interface{}))
}

// Flusher is implemented by stages that can force-close their open bucket,
// used on shutdown so partial bars are not lost.
type Flusher interface {
	Flush()
}

// TypeMismatchError reports incompatible stage types at chain construction.
type TypeMismatchError struct {
	Output reflect.Type // first stage's declared output
	Input  reflect.Type // second stage's declared input
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("consolidator: output type %s does not match next input type %s", e.Output, e.Input)
}

// emitter carries the produced-value slot and handler list shared by the
// concrete stages. Not safe for concurrent use; stages are single-writer.
type emitter struct {
	handlers []func(interface{})
	current  interface{}
	produced bool
}

func (e *emitter) OnConsolidated(fn func(v interface{})) {
	e.handlers = append(e.handlers, fn)
}

func (e *emitter) Current() (interface{}, bool) {
	return e.current, e.produced
}

func (e *emitter) emit(v interface{}) {
	e.current = v
	e.produced = true
	for _, fn := range e.handlers {
		fn(v)
	}
}
