package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"property-desk/api"
)

// Prompt reads one line of input per request.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Prompt writes the request label and returns the next line without its
// line ending. It returns io.EOF once input is exhausted.
func (p *Prompt) Prompt(ctx context.Context, req api.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	label := req.Label
	if label == "" {
		label = req.Name
	}
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
