// Package console implements the interactive question loop.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"nlp_qa/qa"
)

const separator = "--------------------------------------------------"

// ErrNoCredential is returned by PromptCredential when nothing was entered.
var ErrNoCredential = errors.New("api key is required")

// Completer answers a prepared question.
type Completer interface {
	Complete(ctx context.Context, q qa.Question) *qa.Answer
}

type line struct {
	text string
	err  error
}

type Console struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan line
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// PromptCredential asks for an API key on the console.
func (c *Console) PromptCredential(ctx context.Context) (string, error) {
	fmt.Fprint(c.out, "Please enter your API key: ")
	text, err := c.readLine(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	key := strings.TrimSpace(text)
	if key == "" {
		fmt.Fprintln(c.out, "API Key is required to proceed.")
		return "", ErrNoCredential
	}
	return key, nil
}

// Run reads questions until "exit", end of input or ctx is done.
func (c *Console) Run(ctx context.Context, completer Completer) error {
	fmt.Fprintln(c.out, "--- NLP Q&A System CLI ---")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprintf(c.out, "\n%s\n", separator)
		fmt.Fprint(c.out, "Enter your question (or type 'exit' to quit): ")

		text, err := c.readLine(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintln(c.out, "\nExiting...")
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("fail to read question: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		input := strings.TrimSpace(text)
		if strings.EqualFold(input, "exit") {
			fmt.Fprintln(c.out, "Exiting...")
			return nil
		}
		if input != "" {
			c.answer(ctx, completer, text)
		}
		if eof {
			fmt.Fprintln(c.out)
			return nil
		}
	}
}

func (c *Console) answer(ctx context.Context, completer Completer, raw string) {
	fmt.Fprintln(c.out, "\n[Processing]...")
	q := qa.NewQuestion(raw)
	fmt.Fprintf(c.out, "Processed Question: %s\n", q.Normalized.Cleaned)
	fmt.Fprintf(c.out, "Tokens: %q\n", q.Normalized.Tokens)

	if q.Normalized.Empty() {
		fmt.Fprintln(c.out, "Nothing left to ask after processing, please rephrase.")
		return
	}

	fmt.Fprintln(c.out, "\n[Sending to completion API]...")
	answer := completer.Complete(ctx, q)

	fmt.Fprintln(c.out, "\n[Answer]:")
	fmt.Fprintln(c.out, answer.Display())
}

// readLine returns one line without its terminator, or ctx.Err() once ctx
// is done. A final line without a newline is returned together with io.EOF.
// Reads happen on a single background goroutine so a blocked terminal read
// never holds up cancellation.
func (c *Console) readLine(ctx context.Context) (string, error) {
	c.once.Do(func() {
		c.lines = make(chan line)
		go c.readLines()
	})

	select {
	case l, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Console) readLines() {
	defer close(c.lines)
	for {
		text, err := c.in.ReadString('\n')
		c.lines <- line{text: strings.TrimRight(text, "\r\n"), err: err}
		if err != nil {
			return
		}
	}
}
