package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/mo"

	"nlp_qa/completion"
)

type Server struct {
	completionService completion.Service
	logger            *slog.Logger
}

func NewServer(completionService completion.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		completionService: completionService,
		logger:            logger,
	}
}

// Complete runs the wrapped service. Completion failures travel inside the
// response so the caller gets the same kind back; only transport problems
// become gRPC errors.
func (s *Server) Complete(ctx context.Context, req *CompleteRequest) (*CompleteResponse, error) {
	completionReq := &completion.CompletionRequest{
		Model:     req.Model,
		Question:  req.Question,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		completionReq.Temperature = mo.Some(*req.Temperature)
	}

	content, err := s.completionService.Complete(ctx, completionReq)
	if err == nil {
		return &CompleteResponse{Content: content}, nil
	}

	s.logger.Warn("completion failed", "model", req.Model, "error", err)

	var cerr *completion.Error
	if !errors.As(err, &cerr) {
		cerr = &completion.Error{Kind: completion.KindConnection, Detail: err.Error()}
	}
	return &CompleteResponse{
		ErrorKind:  string(cerr.Kind),
		StatusCode: cerr.StatusCode,
		Detail:     cerr.Detail,
	}, nil
}

var _ CompletionServer = (*Server)(nil)
