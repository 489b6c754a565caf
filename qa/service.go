// Package qa runs one question through normalization, a single completion
// attempt and the exchange journal.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"nlp_qa/completion"
	"nlp_qa/journal"
	"nlp_qa/preprocess"
)

type Options struct {
	Model       string
	MaxTokens   int
	Temperature mo.Option[float64]
}

// Question is the raw text as typed plus its normalized form.
type Question struct {
	Raw        string
	Normalized preprocess.Normalized
}

func NewQuestion(raw string) Question {
	return Question{Raw: raw, Normalized: preprocess.Normalize(raw)}
}

// Processed renders the normalized text and its tokens on one line.
func (q Question) Processed() string {
	return fmt.Sprintf("%s (Tokens: %q)", q.Normalized.Cleaned, q.Normalized.Tokens)
}

// Answer is the outcome of one exchange. Exactly one of Text and Err is meaningful.
type Answer struct {
	ID       uuid.UUID
	Question Question
	Model    string
	Text     string
	Err      error
	Elapsed  time.Duration
}

// Display is the string shown to the user: the reply, or the error message.
func (a *Answer) Display() string {
	return completion.Message(a.Text, a.Err)
}

type Service struct {
	opts       Options
	completion completion.Service
	journal    journal.Service
	logger     *slog.Logger
	now        func() time.Time
}

func New(opts Options, completionService completion.Service, journalService journal.Service, logger *slog.Logger) *Service {
	if journalService == nil {
		journalService = journal.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		opts:       opts,
		completion: completionService,
		journal:    journalService,
		logger:     logger,
		now:        time.Now,
	}
}

// Ask normalizes raw and completes it.
func (s *Service) Ask(ctx context.Context, raw string) *Answer {
	return s.Complete(ctx, NewQuestion(raw))
}

// Complete sends the cleaned question upstream once.
func (s *Service) Complete(ctx context.Context, q Question) *Answer {
	answer := &Answer{
		ID:       uuid.New(),
		Question: q,
		Model:    s.opts.Model,
	}
	logger := s.logger.With("id", answer.ID, "model", s.opts.Model)

	start := s.now()
	text, err := s.completion.Complete(ctx, &completion.CompletionRequest{
		Model:       s.opts.Model,
		Question:    q.Normalized.Cleaned,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	answer.Elapsed = s.now().Sub(start)

	if err != nil {
		var cerr *completion.Error
		if !errors.As(err, &cerr) {
			err = &completion.Error{Kind: completion.KindConnection, Detail: err.Error(), Err: err}
		}
		answer.Err = err
		logger.Warn("question failed", "kind", completion.KindOf(err), "elapsed", answer.Elapsed)
	} else {
		answer.Text = text
		logger.Info("question answered", "tokens", len(q.Normalized.Tokens), "elapsed", answer.Elapsed)
	}

	s.record(ctx, answer)
	return answer
}

func (s *Service) record(ctx context.Context, answer *Answer) {
	entry := journal.Entry{
		ID:        answer.ID,
		Question:  answer.Question.Raw,
		Cleaned:   answer.Question.Normalized.Cleaned,
		Tokens:    answer.Question.Normalized.Tokens,
		Model:     answer.Model,
		Answer:    answer.Text,
		Elapsed:   answer.Elapsed,
		CreatedAt: s.now(),
	}
	var cerr *completion.Error
	if errors.As(answer.Err, &cerr) {
		entry.ErrorKind = string(cerr.Kind)
		entry.StatusCode = cerr.StatusCode
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("fail to journal exchange", "id", answer.ID, "error", err)
	}
}
