package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"property-desk/api"
)

type State int

const (
	Idle State = iota
	Listing
	Selected
	Executing
	Terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listing:
		return "listing"
	case Selected:
		return "selected"
	case Executing:
		return "executing"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SelectionRequest is the prompt used to read a menu choice.
var SelectionRequest = api.Request{
	Name:  "selection",
	Label: fmt.Sprintf("Select an option (%d to exit)", api.ExitIndex),
}

// Menu drives endpoint selection and execution one transition at a time.
type Menu struct {
	Title string

	registry *api.Registry
	prompt   api.PromptSource
	out      api.Renderer
	logger   *slog.Logger

	state    State
	selected api.Endpoint
}

func New(title string, registry *api.Registry, prompt api.PromptSource, out api.Renderer, logger *slog.Logger) *Menu {
	if logger == nil {
		logger = slog.Default()
	}
	return &Menu{
		Title:    title,
		registry: registry,
		prompt:   prompt,
		out:      out,
		logger:   logger,
		state:    Idle,
	}
}

func (m *Menu) State() State { return m.state }

// Selected returns the endpoint chosen in the Selected and Executing states.
func (m *Menu) Selected() api.Endpoint { return m.selected }

// Step performs one transition and returns the new state.
func (m *Menu) Step(ctx context.Context) State {
	switch m.state {
	case Idle:
		m.out.Text(m.Render())
		m.state = Listing

	case Listing:
		m.state = m.choose(ctx)

	case Selected:
		m.out.Text(m.selected.Details())
		m.state = Executing

	case Executing:
		m.selected.Execute(ctx, m.prompt, m.out)
		m.selected = nil
		m.state = Idle
	}
	return m.state
}

// Run steps until the menu reaches Terminal or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	for m.state != Terminal {
		if err := ctx.Err(); err != nil {
			m.state = Terminal
			return err
		}
		m.Step(ctx)
	}
	return nil
}

func (m *Menu) choose(ctx context.Context) State {
	input, err := m.prompt.Prompt(ctx, SelectionRequest)
	if errors.Is(err, io.EOF) {
		return Terminal
	}
	if err != nil {
		m.logger.Error("Failed to read selection", "error", err)
		return Terminal
	}
	if n, err := strconv.Atoi(strings.TrimSpace(input)); err == nil && n == api.ExitIndex {
		m.out.Text("Goodbye.")
		return Terminal
	}

	e, err := m.registry.ResolveInput(input)
	if err != nil {
		m.logger.Debug("Selection rejected", "input", input, "error", err)
		m.out.Text(fmt.Sprintf("Invalid selection %q: choose a number from the menu.", strings.TrimSpace(input)))
		return Idle
	}
	m.selected = e
	return Selected
}

// Render returns the numbered menu.
func (m *Menu) Render() string {
	var sb strings.Builder
	if m.Title != "" {
		fmt.Fprintf(&sb, "=== %s ===\n", m.Title)
	}
	entries := m.registry.Entries()
	category := ""
	for _, entry := range entries {
		if entry.Category != category {
			category = entry.Category
			fmt.Fprintf(&sb, "\n--- %s ---\n", category)
		}
		sb.WriteString(entry.Endpoint.Brief(entry.Index))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\n%d. Exit", api.ExitIndex)
	return sb.String()
}
