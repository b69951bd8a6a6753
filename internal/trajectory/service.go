package trajectory

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
)

// Builder is the remote trajectory surface the job service needs.
type Builder interface {
	Build(ctx context.Context, req BuildRequest) (*Data, error)
}

// Publisher enqueues job ids for the worker.
type Publisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

// Service runs the async build pipeline: the API enqueues jobs, the worker
// processes them.
type Service struct {
	repo      *Repo
	builder   Builder
	publisher Publisher
}

func NewService(repo *Repo, builder Builder, publisher Publisher) *Service {
	return &Service{repo: repo, builder: builder, publisher: publisher}
}

// EnqueueBuild persists a queued job and publishes its id. The job row is
// the source of truth for status; the queue message only carries the id.
func (s *Service) EnqueueBuild(ctx context.Context, userID string, req BuildRequest) (*Job, error) {
	if req.SessionID == "" {
		return nil, errors.New("session id required")
	}
	req.ApplyDefaults()

	job := &Job{
		ID:                    ulid.Make().String(),
		UserID:                userID,
		SessionID:             req.SessionID,
		WeeklyHours:           req.WeeklyHours,
		TotalMonths:           req.TotalMonths,
		TargetPositionsLimit:  req.TargetPositionsLimit,
		CurrentPositionsLimit: req.CurrentPositionsLimit,
		Status:                JobQueued,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if err := s.publisher.PublishJob(ctx, job.ID); err != nil {
		// the row stays queued; a requeue sweep can pick it up later
		return nil, err
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

// ProcessJob is the worker side: claim the job, call the gateway, record the
// outcome. Returning an error signals the consumer to nack.
func (s *Service) ProcessJob(ctx context.Context, jobID string) error {
	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	claimed, err := s.repo.MarkJobRunning(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		// duplicate delivery or another worker won the claim
		return nil
	}

	data, err := s.builder.Build(ctx, BuildRequest{
		SessionID:             job.SessionID,
		WeeklyHours:           job.WeeklyHours,
		TotalMonths:           job.TotalMonths,
		TargetPositionsLimit:  job.TargetPositionsLimit,
		CurrentPositionsLimit: job.CurrentPositionsLimit,
	})
	if err != nil {
		if markErr := s.repo.MarkJobFailed(ctx, jobID, err.Error()); markErr != nil {
			return markErr
		}
		return nil
	}

	raw, err := Encode(data)
	if err != nil {
		return s.repo.MarkJobFailed(ctx, jobID, err.Error())
	}
	return s.repo.MarkJobSucceeded(ctx, jobID, string(raw))
}
