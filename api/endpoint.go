package api

import (
	"context"
	"errors"

	"property-desk/engine"
)

// Endpoint is one operation exposed through the menu. Execute never panics
// and never returns an error: every failure is folded into the Result, which
// is also handed to the Renderer.
type Endpoint interface {
	Name() string
	Brief(index int) string
	Details() string
	Execute(ctx context.Context, prompt PromptSource, out Renderer) Result
}

// Request describes one value the endpoint needs from the user.
type Request struct {
	Name     string
	Label    string
	Type     engine.FieldType
	Required bool
}

// PromptSource supplies raw answers. Implementations return io.EOF when the
// input is exhausted.
type PromptSource interface {
	Prompt(ctx context.Context, req Request) (string, error)
}

// Renderer prints menu text and execution results.
type Renderer interface {
	Text(text string)
	Result(res Result)
}

type Status int

const (
	Succeeded Status = iota
	Failed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "success"
	case Failed:
		return "failure"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Failure is the renderable form of an execution error.
type Failure struct {
	Kind    engine.Kind
	Field   string
	Message string
}

// Result is the outcome of one Execute call.
type Result struct {
	Endpoint    string
	ExecutionID string
	Status      Status
	Message     string
	Columns     []string
	Rows        []engine.Row
	Failure     *Failure
}

// OK reports whether the execution succeeded.
func (r Result) OK() bool { return r.Status == Succeeded }

// FailureFrom converts err into a Failure. Transaction and internal errors
// render a generic message; the cause stays in the logs.
func FailureFrom(err error) *Failure {
	kind := engine.KindOf(err)
	f := &Failure{Kind: kind, Message: err.Error()}

	switch kind {
	case engine.KindValidation:
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			f.Field = verr.Field
		}
	case engine.KindTransaction:
		f.Message = (&engine.TransactionError{}).Error()
	case engine.KindInternal:
		f.Message = "unexpected error; no changes were saved"
	}
	return f
}
