package journal

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one exchange as it is written to the journal.
type Entry struct {
	ID         uuid.UUID
	Question   string
	Cleaned    string
	Tokens     []string
	Model      string
	Answer     string
	ErrorKind  string
	StatusCode int
	Elapsed    time.Duration
	CreatedAt  time.Time
}
