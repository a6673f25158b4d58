package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"property-desk/engine"
	"property-desk/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// QuitSentinel aborts the current endpoint when entered at any prompt.
const QuitSentinel = "quit"

// Observer is told about every finished execution.
type Observer interface {
	Observe(endpoint string, status Status, kind engine.Kind, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Observe(string, Status, engine.Kind, time.Duration) {}

// Info is the static description of an endpoint.
type Info struct {
	Name        string
	Summary     string
	Description string
	Params      []engine.Param
	Example     string
}

// Deps are the shared collaborators every endpoint is built with.
type Deps struct {
	Cache     *engine.Cache
	Validator *validator.Validator
	Logger    *slog.Logger
	Observer  Observer
}

// Base implements the parts of Endpoint shared by every operation: the
// descriptions, template compilation and the Run wrapper that turns errors
// and panics into a rendered Result.
type Base struct {
	Info Info

	cache       *engine.Cache
	validator   *validator.Validator
	logger      *slog.Logger
	observer    Observer
	unavailable error
}

func NewBase(deps Deps, info Info) Base {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var observer Observer = nopObserver{}
	if deps.Observer != nil {
		observer = deps.Observer
	}
	return Base{
		Info:      info,
		cache:     deps.Cache,
		validator: deps.Validator,
		logger:    logger.With(slog.String("endpoint", info.Name)),
		observer:  observer,
	}
}

func (b *Base) Name() string { return b.Info.Name }

func (b *Base) Brief(index int) string {
	line := fmt.Sprintf("%d. %s - %s", index, b.Info.Name, b.Info.Summary)
	if b.unavailable != nil {
		line += " [unavailable]"
	}
	return line
}

func (b *Base) Details() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s ---\n", b.Info.Name)
	fmt.Fprintf(&sb, "Description: %s\n", b.Info.Description)
	if len(b.Info.Params) > 0 {
		sb.WriteString("Parameters:\n")
		for _, p := range b.Info.Params {
			qualifier := ""
			if !p.Required {
				qualifier = ", optional"
			}
			fmt.Fprintf(&sb, "\t- %s (%s%s)\n", p.Name, p.Type, qualifier)
		}
	}
	if b.Info.Example != "" {
		fmt.Fprintf(&sb, "Example: %s\n", b.Info.Example)
	}
	fmt.Fprintf(&sb, "Enter '%s' at any prompt to cancel.", QuitSentinel)
	return sb.String()
}

// Available returns the compilation error that disabled the endpoint, if any.
func (b *Base) Available() error { return b.unavailable }

// Compile prepares tmpl under id. The first failure disables the endpoint
// but is otherwise only logged.
func (b *Base) Compile(ctx context.Context, id, tmpl string) {
	if _, err := b.cache.Compile(ctx, id, tmpl); err != nil && b.unavailable == nil {
		b.unavailable = err
	}
}

// Stmt returns the compiled template id bound to tx.
func (b *Base) Stmt(ctx context.Context, tx *sqlx.Tx, id string) (*sqlx.NamedStmt, error) {
	compiled, err := b.cache.Get(id)
	if err != nil {
		return nil, err
	}
	return tx.NamedStmtContext(ctx, compiled.Stmt), nil
}

// Query runs the compiled read-only template id outside a transaction.
func (b *Base) Query(ctx context.Context, id string, args map[string]any) (*sqlx.Rows, error) {
	compiled, err := b.cache.Get(id)
	if err != nil {
		return nil, err
	}
	return compiled.Stmt.QueryxContext(ctx, args)
}

// Run executes fn with a Prompter and converts its outcome into a Result.
// The result is rendered, observed and logged before it is returned.
func (b *Base) Run(ctx context.Context, prompt PromptSource, out Renderer, fn func(ctx context.Context, p *Prompter) (Result, error)) Result {
	start := time.Now()
	execID := uuid.New().String()

	res, err := b.invoke(ctx, prompt, fn)
	if err != nil {
		res = resultFor(err)
	} else {
		res.Status = Succeeded
	}
	res.Endpoint = b.Info.Name
	res.ExecutionID = execID

	out.Result(res)

	elapsed := time.Since(start)
	kind := engine.KindOf(err)
	b.observer.Observe(b.Info.Name, res.Status, kind, elapsed)
	b.log(ctx, execID, res, kind, err, elapsed)

	return res
}

func (b *Base) invoke(ctx context.Context, prompt PromptSource, fn func(ctx context.Context, p *Prompter) (Result, error)) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("panic: %v", r)
		}
	}()

	if b.unavailable != nil {
		return Result{}, b.unavailable
	}
	return fn(ctx, &Prompter{src: prompt, validator: b.validator})
}

func resultFor(err error) Result {
	if engine.KindOf(err) == engine.KindUserAbort {
		return Result{Status: Aborted, Message: err.Error()}
	}
	f := FailureFrom(err)
	return Result{Status: Failed, Message: f.Message, Failure: f}
}

func (b *Base) log(ctx context.Context, execID string, res Result, kind engine.Kind, err error, elapsed time.Duration) {
	attrs := []slog.Attr{
		slog.String("execution_id", execID),
		slog.String("outcome", res.Status.String()),
		slog.Duration("latency", elapsed),
	}
	if kind != engine.KindNone {
		attrs = append(attrs, slog.String("kind", string(kind)))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if cause := errors.Unwrap(err); cause != nil {
			attrs = append(attrs, slog.String("cause", cause.Error()))
		}
	}

	switch kind {
	case engine.KindNone, engine.KindUserAbort:
		b.logger.LogAttrs(ctx, slog.LevelInfo, "execution completed", attrs...)
	case engine.KindValidation, engine.KindEmptyChangeSet, engine.KindNotFound:
		b.logger.LogAttrs(ctx, slog.LevelWarn, "execution rejected", attrs...)
	default:
		b.logger.LogAttrs(ctx, slog.LevelError, "execution failed", attrs...)
	}
}

// Prompter asks for parameter values and watches for the quit sentinel.
type Prompter struct {
	src       PromptSource
	validator *validator.Validator
}

// Ask returns the raw answer for p. The quit sentinel, an exhausted input and
// a cancelled ctx all abort with engine.ErrUserAbort.
func (p *Prompter) Ask(ctx context.Context, param engine.Param) (string, error) {
	label := param.Label
	if label == "" {
		label = param.Name
	}
	raw, err := p.src.Prompt(ctx, Request{
		Name:     param.Name,
		Label:    label,
		Type:     param.Type,
		Required: param.Required,
	})
	if errors.Is(err, io.EOF) || ctx.Err() != nil {
		return "", engine.ErrUserAbort
	}
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", param.Name, err)
	}
	if strings.EqualFold(strings.TrimSpace(raw), QuitSentinel) {
		return "", engine.ErrUserAbort
	}
	return raw, nil
}

// Collect asks for every param in order, then parses the answers. Nothing is
// parsed until all answers are in, so a quit midway leaves no partial state.
func (p *Prompter) Collect(ctx context.Context, params []engine.Param) (engine.FieldValues, error) {
	raw := make(map[string]string, len(params))
	for _, param := range params {
		answer, err := p.Ask(ctx, param)
		if err != nil {
			return nil, err
		}
		raw[param.Name] = answer
	}
	return engine.Parse(p.validator, params, raw)
}
