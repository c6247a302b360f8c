package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"coi-gateway/internal/model"
)

type fakeStore struct {
	calls int
	got   *model.Submission
	id    int64
	err   error
}

func (f *fakeStore) Insert(_ context.Context, sub *model.Submission) (int64, error) {
	f.calls++
	f.got = sub
	return f.id, f.err
}

func newTestSubmissionService(st SubmissionStore) *SubmissionService {
	return NewSubmissionService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubmit_Success(t *testing.T) {
	st := &fakeStore{id: 42}
	s := newTestSubmissionService(st)

	id, err := s.Submit(context.Background(), []byte(`{"projectName":"Healthcare Campus","state":"CO","totalDeduction":4000}`))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if st.got.ProjectName != "Healthcare Campus" || st.got.State != "CO" || st.got.TotalDeduction != 4000 {
		t.Errorf("stored submission = %+v", *st.got)
	}
}

func TestSubmit_EmptyObjectDefaults(t *testing.T) {
	st := &fakeStore{id: 1}
	s := newTestSubmissionService(st)

	if _, err := s.Submit(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if *st.got != (model.Submission{}) {
		t.Errorf("stored submission = %+v, want zero values", *st.got)
	}
}

func TestSubmit_InvalidJSON(t *testing.T) {
	st := &fakeStore{id: 1}
	s := newTestSubmissionService(st)

	for _, body := range []string{``, `{`, `not json`, `[]`, `null`} {
		t.Run(body, func(t *testing.T) {
			_, err := s.Submit(context.Background(), []byte(body))
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("Submit(%q) error = %v, want ErrInvalidPayload", body, err)
			}
		})
	}
	if st.calls != 0 {
		t.Errorf("store called %d times for invalid payloads, want 0", st.calls)
	}
}

func TestSubmit_StoreFailure(t *testing.T) {
	cause := errors.New("connection refused")
	st := &fakeStore{err: cause}
	s := newTestSubmissionService(st)

	_, err := s.Submit(context.Background(), []byte(`{}`))
	if !errors.Is(err, ErrStore) {
		t.Errorf("Submit() error = %v, want ErrStore", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Submit() error = %v, want it to wrap the cause", err)
	}
}
