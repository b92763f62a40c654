package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/learning"
	"github.com/vinnu2910/edutainverse/internal/http/response"
	"github.com/vinnu2910/edutainverse/internal/platform/apierr"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"github.com/vinnu2910/edutainverse/internal/services"
)

// AdminCourseHandler exposes the nested course editor. Clients open a tree,
// edit it locally and PUT it back whole; the baseline they got on open
// decides which absent nodes get deleted.
type AdminCourseHandler struct {
	log        *logger.Logger
	editor     services.CourseEditorService
	enrollment services.EnrollmentService
}

func NewAdminCourseHandler(log *logger.Logger, editor services.CourseEditorService, enrollment services.EnrollmentService) *AdminCourseHandler {
	return &AdminCourseHandler{
		log:        log.With("handler", "AdminCourseHandler"),
		editor:     editor,
		enrollment: enrollment,
	}
}

type baselineBody struct {
	ModuleIDs []uuid.UUID `json:"module_ids"`
	VideoIDs  []uuid.UUID `json:"video_ids"`
}

type courseTreeRequest struct {
	Course  types.CourseFields   `json:"course"`
	Modules []*types.ModuleDraft `json:"modules"`
	// Baseline is optional. Without it the current stored tree is the
	// baseline, so every persisted node missing from Modules is deleted.
	Baseline *baselineBody `json:"baseline,omitempty"`
}

type courseTreeView struct {
	Ref      types.NodeRef        `json:"ref"`
	Course   types.CourseFields   `json:"course"`
	Modules  []*types.ModuleDraft `json:"modules"`
	Baseline baselineBody         `json:"baseline"`
}

type saveResponse struct {
	Report *types.SaveReport  `json:"report"`
	Tree   *courseTreeView    `json:"tree,omitempty"`
	Error  *response.APIError `json:"error,omitempty"`
}

func viewOf(d *types.CourseDraft) *courseTreeView {
	modules := d.Modules
	if modules == nil {
		modules = []*types.ModuleDraft{}
	}
	return &courseTreeView{
		Ref:     d.Ref,
		Course:  d.Fields,
		Modules: modules,
		Baseline: baselineBody{
			ModuleIDs: d.Baseline.ModuleIDs.Sorted(),
			VideoIDs:  d.Baseline.VideoIDs.Sorted(),
		},
	}
}

func (r *courseTreeRequest) draft(ref types.NodeRef) *types.CourseDraft {
	d := &types.CourseDraft{
		Ref:     ref,
		Fields:  r.Course,
		Modules: r.Modules,
	}
	if r.Baseline != nil {
		d.Baseline = types.Baseline{
			Captured:  true,
			ModuleIDs: learning.NewIDSet(r.Baseline.ModuleIDs...),
			VideoIDs:  learning.NewIDSet(r.Baseline.VideoIDs...),
		}
	}
	return d
}

// GET /api/admin/courses/:id/tree
func (h *AdminCourseHandler) GetTree(c *gin.Context) {
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	draft, err := h.editor.OpenDraft(c.Request.Context(), nil, courseID)
	if err != nil {
		h.log.Warn("GetTree failed", "error", err, "course_id", courseID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, viewOf(draft))
}

// POST /api/admin/courses
func (h *AdminCourseHandler) CreateCourse(c *gin.Context) {
	var req courseTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	draft := req.draft(learning.NewPending())
	draft.Baseline = types.Baseline{Captured: true, ModuleIDs: learning.NewIDSet(), VideoIDs: learning.NewIDSet()}
	h.save(c, draft, http.StatusCreated)
}

// PUT /api/admin/courses/:id/tree
func (h *AdminCourseHandler) SaveTree(c *gin.Context) {
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	var req courseTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.save(c, req.draft(learning.Persisted(courseID)), http.StatusOK)
}

// save writes the report for every outcome. A partial save is still a
// success status; a failed one (nothing below the course stuck, or the course
// row itself failed) answers with the error status and the report.
func (h *AdminCourseHandler) save(c *gin.Context, draft *types.CourseDraft, okStatus int) {
	report, err := h.editor.Save(c.Request.Context(), nil, draft)
	if err != nil {
		apiErr := apierr.FromError(err)
		_ = c.Error(err)
		h.log.Warn("SaveCourseTree failed", "error", err, "course_ref", draft.Ref.String())
		if report == nil {
			response.RespondAppError(c, err)
			return
		}
		c.JSON(apiErr.Status, saveResponse{
			Report: report,
			Error:  &response.APIError{Code: apiErr.Code, Message: publicMessage(apiErr)},
		})
		return
	}

	status := okStatus
	body := saveResponse{Report: report, Tree: viewOf(draft)}
	if report.Status == learning.SaveFailed {
		status = http.StatusInternalServerError
		body.Error = &response.APIError{Code: "save_failed", Message: "no item could be saved"}
	}
	c.JSON(status, body)
}

// DELETE /api/admin/courses/:id
func (h *AdminCourseHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	if err := h.editor.DeleteCourse(c.Request.Context(), nil, courseID); err != nil {
		h.log.Warn("DeleteCourse failed", "error", err, "course_id", courseID)
		response.RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/courses/:id/recount
func (h *AdminCourseHandler) RecountEnrollments(c *gin.Context) {
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	n, err := h.enrollment.RecountEnrollments(c.Request.Context(), nil, courseID)
	if err != nil {
		h.log.Error("RecountEnrollments failed", "error", err, "course_id", courseID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_id": courseID, "enrollment_count": n})
}

func publicMessage(e *apierr.Error) string {
	if e.Status >= http.StatusInternalServerError && e.Status != http.StatusBadGateway {
		return "internal error"
	}
	return e.Error()
}
