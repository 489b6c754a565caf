package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"nlp_qa/journal"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	// MaxLen trims the stream approximately to this many entries. Zero disables trimming.
	MaxLen      int64
	WorkerCount int
	BufferSize  int
	Logger      *slog.Logger
}

// Service implements journal.Service by appending entries to a Redis stream
// from a small pool of background workers.
type Service struct {
	taskChan chan journal.Entry
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	client   *goredis.Client
	stream   string
	maxLen   int64
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// New connects to Redis and starts the workers.
func New(ctx context.Context, cfg Config) (*Service, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("fail to connect to redis at %s: %w", cfg.Addr, err)
	}
	return newService(client, cfg), nil
}

func newService(client *goredis.Client, cfg Config) *Service {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		taskChan: make(chan journal.Entry, cfg.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
		client:   client,
		stream:   cfg.Stream,
		maxLen:   cfg.MaxLen,
		logger:   cfg.Logger,
	}
	s.start(cfg.WorkerCount)
	return s
}

// Record queues entry for writing. It never blocks: a full queue drops the entry.
func (s *Service) Record(_ context.Context, entry journal.Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("journal is shut down")
	}

	select {
	case s.taskChan <- entry:
		return nil
	default:
		return fmt.Errorf("journal queue is full, dropping entry %s", entry.ID)
	}
}

// Shutdown writes what is already queued, then stops the workers and closes the client.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.taskChan)
	s.mu.Unlock()

	s.logger.Info("shutting down journal")
	s.wg.Wait()
	s.cancel()
	if err := s.client.Close(); err != nil {
		s.logger.Warn("fail to close redis client", "error", err)
	}
}

func (s *Service) start(workerCount int) {
	for i := 0; i < workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Debug("started journal workers", "count", workerCount)
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	for entry := range s.taskChan {
		if err := s.write(entry); err != nil {
			s.logger.Error("fail to write journal entry", "worker", id, "id", entry.ID, "error", err)
		}
	}
}

func (s *Service) write(entry journal.Entry) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	args := &goredis.XAddArgs{
		Stream: s.stream,
		Values: values(entry),
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("fail to xadd to %s: %w", s.stream, err)
	}
	return nil
}

func values(entry journal.Entry) map[string]any {
	return map[string]any{
		"id":          entry.ID.String(),
		"question":    entry.Question,
		"cleaned":     entry.Cleaned,
		"tokens":      strings.Join(entry.Tokens, " "),
		"model":       entry.Model,
		"answer":      entry.Answer,
		"error_kind":  entry.ErrorKind,
		"status_code": strconv.Itoa(entry.StatusCode),
		"elapsed_ms":  strconv.FormatInt(entry.Elapsed.Milliseconds(), 10),
		"created_at":  entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

var _ journal.Service = (*Service)(nil)
