// Package web serves the single-page question form.
package web

import (
	"context"
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"nlp_qa/qa"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index.html").Parse(indexHTML))

// Asker answers one raw question.
type Asker interface {
	Ask(ctx context.Context, raw string) *qa.Answer
}

type page struct {
	Question  string
	Processed string
	Answer    string
	Notice    string
	Answered  bool
}

type handler struct {
	asker  Asker
	logger *slog.Logger
}

// NewRouter builds the gin engine serving the form on "/" and a liveness
// check on "/healthz".
func NewRouter(asker Asker, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{asker: asker, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.SetHTMLTemplate(indexTemplate)

	r.GET("/", h.index)
	r.POST("/", h.ask)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func (h *handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{})
}

func (h *handler) ask(c *gin.Context) {
	raw := c.PostForm("question")
	if strings.TrimSpace(raw) == "" {
		c.HTML(http.StatusOK, "index.html", page{Question: raw})
		return
	}

	if q := qa.NewQuestion(raw); q.Normalized.Empty() {
		c.HTML(http.StatusOK, "index.html", page{
			Question: raw,
			Notice:   "Nothing left to ask after processing, please rephrase.",
		})
		return
	}

	answer := h.asker.Ask(c.Request.Context(), raw)
	c.HTML(http.StatusOK, "index.html", page{
		Question:  raw,
		Processed: answer.Question.Processed(),
		Answer:    answer.Display(),
		Answered:  true,
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
