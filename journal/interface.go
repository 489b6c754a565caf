package journal

import "context"

//go:generate mockgen -destination mock/journal_mock.go nlp_qa/journal Service

// Service records finished question/answer exchanges. Records are write-only:
// nothing in the answer path ever reads them back.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	Shutdown()
}
