package completion

import "github.com/samber/mo"

type CompletionRequest struct {
	Model       string
	Question    string
	Temperature mo.Option[float64]
	MaxTokens   int
}
