package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/metrics"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/repository"
)

// StudentStore is the registration store the student service runs against.
type StudentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	FindByKey(ctx context.Context, class, section, rollNumber string) (*model.Student, error)
	Create(ctx context.Context, s *model.Student) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.StudentStatus) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
}

// EventPublisher fans registration events out to interested admins.
type EventPublisher interface {
	Publish(ctx context.Context, event model.StudentEvent) error
}

// statusTransitions lists the allowed moves between review states.
// Re-applying the current status is always accepted as a no-op.
var statusTransitions = map[model.StudentStatus][]model.StudentStatus{
	model.StatusSubmitted: {model.StatusApproved},
}

// StudentService handles registration intake, duplicate detection and review.
type StudentService struct {
	students  StudentStore
	publisher EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewStudentService creates a new StudentService. publisher may be nil.
func NewStudentService(students StudentStore, publisher EventPublisher, log zerolog.Logger) *StudentService {
	return &StudentService{
		students:  students,
		publisher: publisher,
		log:       log.With().Str("component", "student_service").Logger(),
		now:       time.Now,
	}
}

// Lookup reports whether a registration already holds the composite key.
func (s *StudentService) Lookup(ctx context.Context, class, section, rollNumber string) (*model.DuplicateCheckResult, error) {
	if blank(class) || blank(section) || blank(rollNumber) {
		return nil, validationError("class, section, and roll number are required")
	}

	existing, err := s.students.FindByKey(ctx, class, section, rollNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.DuplicateCheckResult{Exists: false}, nil
		}
		return nil, fmt.Errorf("find student: %w", err)
	}

	metrics.DuplicateHits.WithLabelValues("lookup").Inc()
	summary := existing.Summary()
	return &model.DuplicateCheckResult{Exists: true, Student: &summary}, nil
}

// Create registers a student. The record is always stored as submitted.
// A taken composite key yields *DuplicateStudentError whether it was seen
// by the pre-check or by the store's unique index.
func (s *StudentService) Create(ctx context.Context, st *model.Student) (_ *model.Student, err error) {
	defer func() { metrics.Registrations.WithLabelValues(registrationOutcome(err)).Inc() }()

	if blank(st.Name) || blank(st.Class) || blank(st.Section) || blank(st.RollNumber) || blank(st.DateOfBirth) {
		return nil, validationError("name, class, section, roll number and date of birth are required")
	}

	existing, err := s.students.FindByKey(ctx, st.Class, st.Section, st.RollNumber)
	switch {
	case err == nil:
		metrics.DuplicateHits.WithLabelValues("precheck").Inc()
		return nil, s.duplicate(st, existing)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find student: %w", err)
	}

	st.Status = model.StatusSubmitted
	if st.SubmittedAt == "" {
		st.SubmittedAt = s.now().UTC().Format(time.RFC3339)
	}

	if err := s.students.Create(ctx, st); err != nil {
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("create student: %w", err)
		}
		metrics.DuplicateHits.WithLabelValues("constraint").Inc()
		winner, ferr := s.students.FindByKey(ctx, st.Class, st.Section, st.RollNumber)
		if ferr != nil {
			s.log.Warn().Err(ferr).Msg("Failed to read back conflicting registration")
			winner = nil
		}
		return nil, s.duplicate(st, winner)
	}

	s.log.Info().
		Str("student_id", st.ID.String()).
		Str("key", config.CacheKey.StudentKey(st.Class, st.Section, st.RollNumber)).
		Msg("Registration submitted")
	s.publish(ctx, model.EventStudentSubmitted, st)
	return st, nil
}

// UpdateStatus moves a registration along its review lifecycle.
func (s *StudentService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.StudentStatus) (*model.Student, error) {
	if !status.Valid() {
		return nil, validationError("invalid status")
	}

	current, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("student %w", ErrNotFound)
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	if current.Status == status {
		return current, nil
	}
	if !canTransition(current.Status, status) {
		return nil, validationError(fmt.Sprintf("cannot change status from %s to %s", current.Status, status))
	}

	updated, err := s.students.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("student %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.log.Info().
		Str("student_id", id.String()).
		Str("from", string(current.Status)).
		Str("to", string(status)).
		Msg("Registration status changed")
	s.publish(ctx, model.EventStudentStatusChanged, updated)
	return updated, nil
}

// List returns every registration, newest first, tagged with its composite key.
func (s *StudentService) List(ctx context.Context) ([]model.StudentListItem, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	items := make([]model.StudentListItem, 0, len(students))
	for _, st := range students {
		items = append(items, model.StudentListItem{
			Student:             st,
			DuplicateIdentifier: config.CacheKey.StudentKey(st.Class, st.Section, st.RollNumber),
		})
	}
	return items, nil
}

func (s *StudentService) duplicate(st *model.Student, existing *model.Student) error {
	dup := &DuplicateStudentError{Class: st.Class, Section: st.Section, RollNumber: st.RollNumber}
	if existing != nil {
		summary := existing.Summary()
		dup.Existing = &summary
	}
	return dup
}

// publish is best effort; a dead feed never fails a registration.
func (s *StudentService) publish(ctx context.Context, typ model.StudentEventType, st *model.Student) {
	if s.publisher == nil {
		return
	}
	event := model.StudentEvent{
		Type:       typ,
		Student:    st.Summary(),
		Class:      st.Class,
		Section:    st.Section,
		RollNumber: st.RollNumber,
		At:         s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(typ)).Msg("Failed to publish student event")
	}
}

func canTransition(from, to model.StudentStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrConflict):
		return "duplicate"
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeFailure
	default:
		return metrics.OutcomeError
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
