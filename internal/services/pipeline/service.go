// Package pipeline implements the demo manuscript-formatting pipeline. The
// pipeline is deliberately fake: a submitted job advances through its stages
// on timers, no formatting happens. It exists so visitors can watch the
// product "work" before creating an account.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkpress/inkpress-go/internal/dependencies/clock"
	"github.com/inkpress/inkpress-go/internal/events"
	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/storage"
)

// DefaultStageDelay is how long each pipeline stage takes
const DefaultStageDelay = 800 * time.Millisecond

// persistTimeout bounds storage writes made from the background runner
const persistTimeout = 5 * time.Second

// Config holds pipeline tunables
type Config struct {
	StageDelay time.Duration
}

// DefaultConfig returns the production pipeline configuration
func DefaultConfig() Config {
	return Config{StageDelay: DefaultStageDelay}
}

// Service runs demo formatting jobs. Submitted jobs always run to
// completion; there is no cancellation.
type Service struct {
	storage     storage.Storage
	clock       clock.Clock
	broadcaster *events.Broadcaster
	cfg         Config
	logger      *slog.Logger

	running sync.WaitGroup
}

// NewService creates a pipeline service
func NewService(store storage.Storage, clk clock.Clock, broadcaster *events.Broadcaster, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		storage:     store,
		clock:       clk,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "pipeline")),
	}
}

// Submit creates a job in the received stage and starts its background run.
// The returned job reflects the state at submission time.
func (s *Service) Submit(ctx context.Context, title string, wordCount int) (*model.Job, error) {
	now := s.clock.Now()
	job := &model.Job{
		ID:        model.JobID(uuid.NewString()),
		Title:     title,
		WordCount: wordCount,
		Stage:     model.StageReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("demo job submitted",
		slog.String("job_id", string(job.ID)),
		slog.Int("word_count", wordCount))
	s.broadcaster.JobProgress(job)

	s.running.Add(1)
	go s.run(*job)

	submitted := *job
	return &submitted, nil
}

// Get returns a job by id
func (s *Service) Get(ctx context.Context, id model.JobID) (*model.Job, error) {
	return s.storage.GetJob(ctx, id)
}

// Wait blocks until all in-flight jobs have finished. Used at shutdown and
// in tests; new submissions during the wait are not accounted for.
func (s *Service) Wait() {
	s.running.Wait()
}

// run advances a job through the remaining stages. It deliberately detaches
// from the submitting request's context: a submitted job survives the
// caller going away.
func (s *Service) run(job model.Job) {
	defer s.running.Done()

	for !job.Stage.Terminal() {
		time.Sleep(s.cfg.StageDelay)

		job.Stage = job.Stage.Next()
		job.UpdatedAt = s.clock.Now()
		s.persist(&job)

		if job.Stage.Terminal() {
			s.logger.Info("demo job complete", slog.String("job_id", string(job.ID)))
			s.broadcaster.JobComplete(&job)
			// The conversion nudge: the demo just showed its value, so
			// prompt the visitor to sign up and keep the result
			s.broadcaster.OpenAuth(model.AuthModeSignUp)
			return
		}

		s.broadcaster.JobProgress(&job)
	}
}

// persist writes a stage transition. The store keeps whatever pointer it is
// given and the runner keeps mutating job after this returns, so a snapshot
// copy goes in, never job itself. Failures are logged, not fatal: the
// broadcastable state keeps advancing even if the store hiccups.
func (s *Service) persist(job *model.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	snapshot := *job
	if err := s.storage.SaveJob(ctx, &snapshot); err != nil {
		s.logger.Error("demo job persist failed",
			slog.String("job_id", string(job.ID)),
			slog.String("stage", string(job.Stage)),
			slog.Any("error", err))
	}
}
