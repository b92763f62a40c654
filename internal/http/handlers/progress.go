package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vinnu2910/edutainverse/internal/http/response"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"github.com/vinnu2910/edutainverse/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		progress: progress,
	}
}

// GET /api/courses/:id/progress
func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	progress, err := h.progress.GetCourseProgress(c.Request.Context(), nil, learner, courseID)
	if err != nil {
		h.log.Error("GetCourseProgress failed", "error", err, "learner_id", learner, "course_id", courseID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, progress)
}

// POST /api/courses/:id/videos/:videoId/toggle
func (h *ProgressHandler) ToggleVideo(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	videoID, ok := uuidParam(c, "videoId", "invalid_video_id")
	if !ok {
		return
	}
	result, err := h.progress.ToggleCourseVideo(c.Request.Context(), nil, learner, courseID, videoID)
	if err != nil {
		h.log.Warn("ToggleVideo failed", "error", err, "learner_id", learner, "course_id", courseID, "video_id", videoID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, result)
}
