package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulend/edulend/internal/services"
	"github.com/edulend/edulend/pkg/response"
)

// ApplicationsHandler exposes the loan-application routes.
type ApplicationsHandler struct {
	applications *services.ApplicationService
}

func NewApplicationsHandler(applications *services.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{applications: applications}
}

type createApplicationRequest struct {
	StudentID    string `json:"student_id" validate:"required,uuid4"`
	UniversityID string `json:"university_id" validate:"required,uuid4"`
	Amount       int64  `json:"amount" validate:"required,min=1"`
}

// POST /api/applications
func (h *ApplicationsHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	app, err := h.applications.Create(requestContext(c), services.CreateApplicationInput{
		StudentID:    req.StudentID,
		UniversityID: req.UniversityID,
		Amount:       req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, app)
}

// GET /api/applications/:id
func (h *ApplicationsHandler) Get(c *gin.Context) {
	app, err := h.applications.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, app)
}

// GET /api/applications
func (h *ApplicationsHandler) List(c *gin.Context) {
	opts := services.ListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
	}

	apps, total, err := h.applications.List(requestContext(c), opts, c.Query("status"), c.Query("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, apps, listMeta(opts, total))
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// PATCH /api/applications/:id/status
func (h *ApplicationsHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	app, err := h.applications.SetStatus(requestContext(c), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, app)
}
