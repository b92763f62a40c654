package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vinnu2910/edutainverse/internal/data/repos"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/learning"
	"github.com/vinnu2910/edutainverse/internal/http/response"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"github.com/vinnu2910/edutainverse/internal/services"
)

// CourseHandler serves the public catalog.
type CourseHandler struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewCourseHandler(log *logger.Logger, catalog services.CatalogService) *CourseHandler {
	return &CourseHandler{
		log:     log.With("handler", "CourseHandler"),
		catalog: catalog,
	}
}

// GET /api/courses?difficulty=&limit=&offset=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var filter repos.CourseFilter
	if raw := strings.TrimSpace(c.Query("difficulty")); raw != "" {
		d, ok := learning.ParseDifficulty(raw)
		if !ok {
			d = types.Difficulty(raw)
		}
		filter.Difficulty = d
	}
	var ok bool
	if filter.Limit, ok = queryInt(c, "limit", 0); !ok {
		return
	}
	if filter.Offset, ok = queryInt(c, "offset", 0); !ok {
		return
	}

	courses, err := h.catalog.ListCourses(c.Request.Context(), nil, filter)
	if err != nil {
		h.log.Warn("ListCourses failed", "error", err, "difficulty", filter.Difficulty)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	detail, err := h.catalog.GetCourseDetail(c.Request.Context(), nil, courseID)
	if err != nil {
		h.log.Error("GetCourse failed", "error", err, "course_id", courseID)
		response.RespondAppError(c, err)
		return
	}
	if detail == nil {
		response.RespondError(c, http.StatusNotFound, "course_not_found", nil)
		return
	}
	response.RespondOK(c, detail)
}
