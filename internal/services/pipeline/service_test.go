package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/inkpress/inkpress-go/internal/dependencies/mocks"
	"github.com/inkpress/inkpress-go/internal/events"
	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/storage/memory"
	"github.com/inkpress/inkpress-go/internal/testutil"
)

type PipelineSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	hubManager *events.HubManager
	service    *Service
	ctx        context.Context
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.hubManager = events.NewHubManager(testutil.NopLogger())
	broadcaster := events.NewBroadcaster(s.hubManager, s.clock, testutil.NopLogger())

	cfg := Config{StageDelay: 0} // stages advance immediately in tests
	s.service = NewService(s.storage, s.clock, broadcaster, cfg, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *PipelineSuite) TearDownTest() {
	s.hubManager.Shutdown()
}

func (s *PipelineSuite) TestSubmitStartsInReceivedStage() {
	job, err := s.service.Submit(s.ctx, "My Novel", 80000)
	s.Require().NoError(err)

	s.NotEmpty(job.ID)
	s.Equal("My Novel", job.Title)
	s.Equal(80000, job.WordCount)
	s.Equal(model.StageReceived, job.Stage)
	s.Equal(0, job.Progress())
	s.Equal(s.clock.Now(), job.CreatedAt)
}

func (s *PipelineSuite) TestJobRunsToCompletion() {
	job, err := s.service.Submit(s.ctx, "My Novel", 80000)
	s.Require().NoError(err)

	s.service.Wait()

	finished, err := s.service.Get(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(model.StageDone, finished.Stage)
	s.Equal(100, finished.Progress())
}

func (s *PipelineSuite) TestJobPersistsEachTransition() {
	// Non-zero delay so we can observe an intermediate stage
	cfg := Config{StageDelay: 30 * time.Millisecond}
	broadcaster := events.NewBroadcaster(s.hubManager, s.clock, testutil.NopLogger())
	service := NewService(s.storage, s.clock, broadcaster, cfg, testutil.NopLogger())

	job, err := service.Submit(s.ctx, "My Novel", 80000)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		current, err := service.Get(s.ctx, job.ID)
		return err == nil && current.Stage != model.StageReceived && !current.Stage.Terminal()
	}, time.Second, time.Millisecond, "expected to observe an intermediate stage")

	service.Wait()

	finished, err := service.Get(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(model.StageDone, finished.Stage)
}

func (s *PipelineSuite) TestJobSurvivesCallerContextCancellation() {
	ctx, cancel := context.WithCancel(s.ctx)
	job, err := s.service.Submit(ctx, "My Novel", 80000)
	s.Require().NoError(err)

	// The submitter goes away; the job still runs to completion
	cancel()
	s.service.Wait()

	finished, err := s.service.Get(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(model.StageDone, finished.Stage)
}

func (s *PipelineSuite) TestGetDuringRunSeesConsistentSnapshots() {
	// Readers polling a job while its runner advances must only ever see
	// settled snapshots; the runner's in-progress writes stay private to it
	cfg := Config{StageDelay: 3 * time.Millisecond}
	broadcaster := events.NewBroadcaster(s.hubManager, s.clock, testutil.NopLogger())
	service := NewService(s.storage, s.clock, broadcaster, cfg, testutil.NopLogger())

	job, err := service.Submit(s.ctx, "My Novel", 80000)
	s.Require().NoError(err)

	done := make(chan struct{})
	go func() {
		service.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			finished, err := service.Get(s.ctx, job.ID)
			s.Require().NoError(err)
			s.Equal(model.StageDone, finished.Stage)
			return
		default:
			current, err := service.Get(s.ctx, job.ID)
			s.Require().NoError(err)
			s.Contains(model.Stages, current.Stage)
		}
	}
}

func (s *PipelineSuite) TestGetUnknownJob() {
	_, err := s.service.Get(s.ctx, "missing")
	s.ErrorIs(err, model.ErrJobNotFound)
}

func (s *PipelineSuite) TestProgressBroadcastOnJobTopic() {
	// Subscribe before submitting so no transition is missed
	jobEvents := make(chan string, 16)
	authEvents := make(chan string, 16)

	// Topic name must exist before Submit assigns the id, so use a service
	// with a slow first transition and subscribe in between
	cfg := Config{StageDelay: 50 * time.Millisecond}
	broadcaster := events.NewBroadcaster(s.hubManager, s.clock, testutil.NopLogger())
	service := NewService(s.storage, s.clock, broadcaster, cfg, testutil.NopLogger())

	authHub := s.hubManager.GetOrCreateHub(events.TopicAuth)
	authClient := events.NewClient(authHub)
	authHub.Register(authClient)

	job, err := service.Submit(s.ctx, "My Novel", 80000)
	s.Require().NoError(err)

	jobHub := s.hubManager.GetOrCreateHub(events.JobTopic(job.ID))
	jobClient := events.NewClient(jobHub)
	jobHub.Register(jobClient)
	go drainInto(jobClient, jobEvents)
	go drainInto(authClient, authEvents)

	service.Wait()

	// Progress events for the intermediate stages plus the completion event
	s.Eventually(func() bool {
		return containsEvent(jobEvents, "job_complete")
	}, time.Second, 5*time.Millisecond, "job topic should see the completion event")

	// Completion nudges the visitor to sign up
	s.Eventually(func() bool {
		return containsEvent(authEvents, "open_auth")
	}, time.Second, 5*time.Millisecond, "auth topic should see the signup prompt")
}

func drainInto(client *events.Client, out chan<- string) {
	for msg := range client.Receive() {
		out <- string(msg)
	}
}

func containsEvent(ch chan string, eventName string) bool {
	for {
		select {
		case msg := <-ch:
			if strings.Contains(msg, "event: "+eventName+"\n") {
				return true
			}
		default:
			return false
		}
	}
}
