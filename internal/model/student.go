package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentStatus is the review state of a registration.
type StudentStatus string

const (
	StatusDraft     StudentStatus = "draft"
	StatusSubmitted StudentStatus = "submitted"
	StatusApproved  StudentStatus = "approved"
)

// Valid reports whether s is a known status.
func (s StudentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved:
		return true
	}
	return false
}

// Student is one ID-card registration.
// (Class, Section, RollNumber) is unique across all records.
type Student struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	FatherName       string        `json:"father_name"`
	Class            string        `json:"class"`
	Section          string        `json:"section"`
	RollNumber       string        `json:"roll_number"`
	DateOfBirth      string        `json:"date_of_birth"`
	BloodGroup       string        `json:"blood_group"`
	Address          string        `json:"address"`
	PhoneNumber      string        `json:"phone_number"`
	EmergencyContact string        `json:"emergency_contact"`
	Photo            string        `json:"photo"`
	Status           StudentStatus `json:"status"`
	SubmittedAt      string        `json:"submitted_at"`
	CreatedAt        time.Time     `json:"created_at"`
}

// StudentSummary is what callers see about a conflicting or matching record.
type StudentSummary struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	Status StudentStatus `json:"status"`
}

// Summary returns the public summary of s.
func (s *Student) Summary() StudentSummary {
	return StudentSummary{ID: s.ID, Name: s.Name, Status: s.Status}
}

// StudentListItem decorates a record with its composite identity key.
type StudentListItem struct {
	Student
	DuplicateIdentifier string `json:"duplicate_identifier"`
}

// DuplicateCheckResult is the answer to a composite-key lookup.
type DuplicateCheckResult struct {
	Exists  bool            `json:"exists"`
	Student *StudentSummary `json:"student,omitempty"`
}

// StudentKeyRequest is the payload for a duplicate check.
type StudentKeyRequest struct {
	Class      string `json:"class" binding:"required,max=32"`
	Section    string `json:"section" binding:"required,max=32"`
	RollNumber string `json:"roll_number" binding:"required,max=32"`
}

// CreateStudentRequest is the registration form submission.
type CreateStudentRequest struct {
	Name             string `json:"name" binding:"required,max=128"`
	FatherName       string `json:"father_name" binding:"max=128"`
	Class            string `json:"class" binding:"required,max=32"`
	Section          string `json:"section" binding:"required,max=32"`
	RollNumber       string `json:"roll_number" binding:"required,max=32"`
	DateOfBirth      string `json:"date_of_birth" binding:"required,max=32"`
	BloodGroup       string `json:"blood_group" binding:"max=8"`
	Address          string `json:"address" binding:"max=512"`
	PhoneNumber      string `json:"phone_number" binding:"max=32"`
	EmergencyContact string `json:"emergency_contact" binding:"max=32"`
	Photo            string `json:"photo"`
	SubmittedAt      string `json:"submitted_at" binding:"max=64"`
}

// UpdateStatusRequest is the admin approval payload.
type UpdateStatusRequest struct {
	Status StudentStatus `json:"status" binding:"required,student_status"`
}

// StudentEventType names a registration lifecycle event.
type StudentEventType string

const (
	EventStudentSubmitted     StudentEventType = "student.submitted"
	EventStudentStatusChanged StudentEventType = "student.status_changed"
)

// StudentEvent is broadcast to admins watching the submission feed.
type StudentEvent struct {
	Type       StudentEventType `json:"type"`
	Student    StudentSummary   `json:"student"`
	Class      string           `json:"class"`
	Section    string           `json:"section"`
	RollNumber string           `json:"roll_number"`
	At         time.Time        `json:"at"`
}
