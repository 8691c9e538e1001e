package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulend/edulend/internal/services"
	"github.com/edulend/edulend/pkg/response"
)

// UniversitiesHandler exposes the study-destination catalogue routes.
type UniversitiesHandler struct {
	universities *services.UniversityService
}

func NewUniversitiesHandler(universities *services.UniversityService) *UniversitiesHandler {
	return &UniversitiesHandler{universities: universities}
}

type createUniversityRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=200"`
	Country    string `json:"country" validate:"required,min=2,max=100"`
	Ranking    int    `json:"ranking" validate:"omitempty,min=1"`
	TuitionFee int64  `json:"tuition_fee" validate:"omitempty,min=0"`
}

// POST /api/universities
func (h *UniversitiesHandler) Create(c *gin.Context) {
	var req createUniversityRequest
	if !bindAndValidate(c, &req) {
		return
	}

	university, err := h.universities.Create(requestContext(c), services.CreateUniversityInput{
		Name:       req.Name,
		Country:    req.Country,
		Ranking:    req.Ranking,
		TuitionFee: req.TuitionFee,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, university)
}

// GET /api/universities/:id
func (h *UniversitiesHandler) Get(c *gin.Context) {
	university, err := h.universities.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, university)
}

// GET /api/universities
func (h *UniversitiesHandler) List(c *gin.Context) {
	opts := services.ListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Query:    c.Query("q"),
	}

	universities, total, err := h.universities.List(requestContext(c), opts, c.Query("country"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, universities, listMeta(opts, total))
}

// DELETE /api/universities/:id
func (h *UniversitiesHandler) Delete(c *gin.Context) {
	if err := h.universities.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "university deleted"})
}
