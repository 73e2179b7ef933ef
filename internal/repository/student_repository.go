package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/idcard-backend/internal/model"
)

const studentColumns = `id, name, father_name, class, section, roll_number, date_of_birth,
	blood_group, address, phone_number, emergency_contact, photo, status, submitted_at, created_at`

// StudentRepository handles student registration data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.ID, &s.Name, &s.FatherName, &s.Class, &s.Section, &s.RollNumber, &s.DateOfBirth,
		&s.BloodGroup, &s.Address, &s.PhoneNumber, &s.EmergencyContact, &s.Photo, &s.Status, &s.SubmittedAt, &s.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// GetByID retrieves a registration by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

// FindByKey retrieves the registration holding a composite identity key.
func (r *StudentRepository) FindByKey(ctx context.Context, class, section, rollNumber string) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students
		 WHERE class = $1 AND section = $2 AND roll_number = $3`,
		class, section, rollNumber))
}

// Create inserts a registration. A taken composite key surfaces as
// a DuplicateKeyError on students_class_section_roll_key.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (name, father_name, class, section, roll_number, date_of_birth,
			blood_group, address, phone_number, emergency_contact, photo, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at`,
		s.Name, s.FatherName, s.Class, s.Section, s.RollNumber, s.DateOfBirth,
		s.BloodGroup, s.Address, s.PhoneNumber, s.EmergencyContact, s.Photo, s.Status, s.SubmittedAt,
	).Scan(&s.ID, &s.CreatedAt)
	return translate(err)
}

// UpdateStatus overwrites a registration's status and returns the updated row.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.StudentStatus) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`UPDATE students SET status = $1 WHERE id = $2 RETURNING `+studentColumns,
		status, id))
}

// List returns every registration, newest first.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}
