package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/response"
	"github.com/stemsi/idcard-backend/internal/service"
	"github.com/stemsi/idcard-backend/internal/validator"
)

// StudentHandler handles registration intake and admin review.
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// CreateStudent godoc
// POST /api/v1/students
// Submits a registration. Taken (class, section, roll number) keys get 409.
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &model.Student{
		Name:             req.Name,
		FatherName:       req.FatherName,
		Class:            req.Class,
		Section:          req.Section,
		RollNumber:       req.RollNumber,
		DateOfBirth:      req.DateOfBirth,
		BloodGroup:       req.BloodGroup,
		Address:          req.Address,
		PhoneNumber:      req.PhoneNumber,
		EmergencyContact: req.EmergencyContact,
		Photo:            req.Photo,
		SubmittedAt:      req.SubmittedAt,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// CheckDuplicate godoc
// POST /api/v1/students/check-duplicate
func (h *StudentHandler) CheckDuplicate(c *gin.Context) {
	var req model.StudentKeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.studentService.Lookup(c.Request.Context(), req.Class, req.Section, req.RollNumber)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListStudents godoc
// GET /api/v1/students
// Lists every registration, newest first. Requires an admin session.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	students, err := h.studentService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, students)
}

// UpdateStatus godoc
// PATCH /api/v1/students/:id/status
// Moves a registration along its review lifecycle. Requires an admin session.
func (h *StudentHandler) UpdateStatus(c *gin.Context) {
	// Ids that cannot exist are reported like any other unknown id.
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, "Student not found")
		return
	}

	var req model.UpdateStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}
