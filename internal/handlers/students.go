package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulend/edulend/internal/services"
	"github.com/edulend/edulend/pkg/response"
)

// StudentsHandler exposes the applicant-profile CRUD routes.
type StudentsHandler struct {
	students *services.StudentService
}

func NewStudentsHandler(students *services.StudentService) *StudentsHandler {
	return &StudentsHandler{students: students}
}

type createStudentRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,min=7,max=20"`
	PAN   string `json:"pan" validate:"required,len=10"`
}

// POST /api/students
func (h *StudentsHandler) Create(c *gin.Context) {
	var req createStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	student, err := h.students.Create(requestContext(c), services.CreateStudentInput{
		UserID: currentUserID(c),
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		PAN:    req.PAN,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// GET /api/students/:id
func (h *StudentsHandler) Get(c *gin.Context) {
	student, err := h.students.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, student)
}

// GET /api/students
func (h *StudentsHandler) List(c *gin.Context) {
	opts := services.ListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Query:    c.Query("q"),
	}

	students, total, err := h.students.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, students, listMeta(opts, total))
}

type updateStudentRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone *string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// PUT /api/students/:id
func (h *StudentsHandler) Update(c *gin.Context) {
	var req updateStudentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	student, err := h.students.Update(requestContext(c), c.Param("id"), services.UpdateStudentInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// DELETE /api/students/:id
func (h *StudentsHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student deleted"})
}
