package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/repository"
)

type studentKey struct {
	class, section, rollNumber string
}

// StudentStore is an in-memory registration store with a unique
// (class, section, roll number) index.
type StudentStore struct {
	mu       sync.RWMutex
	students map[uuid.UUID]*model.Student
	byKey    map[studentKey]uuid.UUID
	order    []uuid.UUID // insertion order
	now      func() time.Time
}

// NewStudentStore creates an empty StudentStore.
func NewStudentStore() *StudentStore {
	return &StudentStore{
		students: make(map[uuid.UUID]*model.Student),
		byKey:    make(map[studentKey]uuid.UUID),
		now:      time.Now,
	}
}

// GetByID retrieves a registration by id.
func (s *StudentStore) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *st
	return &c, nil
}

// FindByKey retrieves the registration holding (class, section, roll number).
func (s *StudentStore) FindByKey(_ context.Context, class, section, rollNumber string) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[studentKey{class, section, rollNumber}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s.students[id]
	return &c, nil
}

// Create inserts a registration, enforcing the composite key.
func (s *StudentStore) Create(_ context.Context, st *model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := studentKey{st.Class, st.Section, st.RollNumber}
	if _, taken := s.byKey[key]; taken {
		return &repository.DuplicateKeyError{Constraint: repository.ConstraintStudentIdentity}
	}
	st.ID = uuid.New()
	st.CreatedAt = s.now()
	c := *st
	s.students[st.ID] = &c
	s.byKey[key] = st.ID
	s.order = append(s.order, st.ID)
	return nil
}

// UpdateStatus sets the review status and returns the updated record.
func (s *StudentStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.StudentStatus) (*model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	st.Status = status
	c := *st
	return &c, nil
}

// List returns all registrations, newest first. Equal timestamps keep
// reverse insertion order.
func (s *StudentStore) List(_ context.Context) ([]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Student, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.students[s.order[i]])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Count returns the number of stored registrations.
func (s *StudentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}
