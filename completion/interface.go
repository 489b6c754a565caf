package completion

import "context"

//go:generate mockgen -destination mock/completion_mock.go nlp_qa/completion Service

// Service answers a single question with one upstream attempt.
// Failures are returned as *Error.
type Service interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}
