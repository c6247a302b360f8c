package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coi-gateway/internal/model"
)

var (
	// ErrInvalidPayload is returned when the submission body is not a JSON object.
	ErrInvalidPayload = errors.New("invalid JSON")
	// ErrStore wraps any failure to persist a submission.
	ErrStore = errors.New("store submission")
)

// SubmissionStore is the persistence backend for calculator submissions.
type SubmissionStore interface {
	Insert(ctx context.Context, sub *model.Submission) (int64, error)
}

// SubmissionService decodes calculator payloads and stores them.
type SubmissionService struct {
	store  SubmissionStore
	logger *slog.Logger
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(store SubmissionStore, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{
		store:  store,
		logger: logger.With("component", "submission_service"),
	}
}

// Submit stores one calculator payload and returns the generated id.
// A body that does not decode yields ErrInvalidPayload and never reaches
// the store; store failures are wrapped in ErrStore.
func (s *SubmissionService) Submit(ctx context.Context, body []byte) (int64, error) {
	sub, err := model.DecodeSubmission(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	id, err := s.store.Insert(ctx, sub)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStore, err)
	}

	s.logger.Info("submission saved", "id", id, "state", sub.State)
	return id, nil
}
