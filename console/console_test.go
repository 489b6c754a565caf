package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlp_qa/completion"
	"nlp_qa/qa"
)

type recordingCompleter struct {
	questions []qa.Question
	reply     func(q qa.Question) *qa.Answer
}

func (r *recordingCompleter) Complete(_ context.Context, q qa.Question) *qa.Answer {
	r.questions = append(r.questions, q)
	if r.reply != nil {
		return r.reply(q)
	}
	return &qa.Answer{Question: q, Text: "answer to " + q.Normalized.Cleaned}
}

func run(t *testing.T, input string, completer Completer) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, New(strings.NewReader(input), &out).Run(context.Background(), completer))
	return out.String()
}

func TestRunAnswersUntilExit(t *testing.T) {
	rc := &recordingCompleter{}
	out := run(t, "Hello, World!\nWhat's Go?\nexit\nnever asked\n", rc)

	require.Len(t, rc.questions, 2)
	assert.Equal(t, "Hello, World!", rc.questions[0].Raw)
	assert.Equal(t, "hello world", rc.questions[0].Normalized.Cleaned)
	assert.Equal(t, "whats go", rc.questions[1].Normalized.Cleaned)

	assert.Contains(t, out, "Processed Question: hello world")
	assert.Contains(t, out, `Tokens: ["hello" "world"]`)
	assert.Contains(t, out, "[Answer]:\nanswer to hello world\n")
	assert.Contains(t, out, "Exiting...")
	assert.NotContains(t, out, "never asked")
}

func TestRunExitIsCaseInsensitive(t *testing.T) {
	rc := &recordingCompleter{}
	out := run(t, "  EXIT \n", rc)

	assert.Empty(t, rc.questions)
	assert.Contains(t, out, "Exiting...")
}

func TestRunSkipsBlankInput(t *testing.T) {
	rc := &recordingCompleter{}
	out := run(t, "\n   \n\t\nexit\n", rc)

	assert.Empty(t, rc.questions)
	assert.NotContains(t, out, "[Processing]")
	assert.Equal(t, 4, strings.Count(out, "Enter your question"))
}

func TestRunStopsAtEOF(t *testing.T) {
	rc := &recordingCompleter{}
	out := run(t, "last question without newline", rc)

	require.Len(t, rc.questions, 1)
	assert.Equal(t, "last question without newline", rc.questions[0].Normalized.Cleaned)
	assert.NotContains(t, out, "Exiting...")
}

func TestRunShowsErrorText(t *testing.T) {
	rc := &recordingCompleter{reply: func(q qa.Question) *qa.Answer {
		return &qa.Answer{Question: q, Err: &completion.Error{Kind: completion.KindStatus, StatusCode: 503, Detail: "unavailable"}}
	}}
	out := run(t, "status?\nexit\n", rc)

	assert.Contains(t, out, "[Answer]:\nAPI Error 503: unavailable\n")
}

func TestRunStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := &recordingCompleter{}
	var out bytes.Buffer
	require.NoError(t, New(strings.NewReader("question\n"), &out).Run(ctx, rc))
	assert.Empty(t, rc.questions)
}

func TestRunStopsWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- New(pr, &out).Run(ctx, &recordingCompleter{})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
}

func TestRunSkipsPunctuationOnlyInput(t *testing.T) {
	rc := &recordingCompleter{}
	out := run(t, "?!...\nexit\n", rc)

	assert.Empty(t, rc.questions)
	assert.Contains(t, out, "Nothing left to ask after processing")
	assert.NotContains(t, out, "[Sending to completion API]")
}

func TestPromptCredentialCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(pr, io.Discard).PromptCredential(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPromptCredential(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("  hf_key  \nfirst question\n"), &out)

	key, err := c.PromptCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hf_key", key)
	assert.Contains(t, out.String(), "Please enter your API key: ")

	// The same reader keeps serving the question loop.
	rc := &recordingCompleter{}
	require.NoError(t, c.Run(context.Background(), rc))
	require.Len(t, rc.questions, 1)
	assert.Equal(t, "first question", rc.questions[0].Normalized.Cleaned)
}

func TestPromptCredentialEmpty(t *testing.T) {
	var out bytes.Buffer
	_, err := New(strings.NewReader("\n"), &out).PromptCredential(context.Background())

	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Contains(t, out.String(), "API Key is required to proceed.")
}
