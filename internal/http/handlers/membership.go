package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/http/response"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"github.com/vinnu2910/edutainverse/internal/services"
)

// MembershipHandler covers enrollment and wishlist, both per course and for
// the signed-in learner's own lists.
type MembershipHandler struct {
	log        *logger.Logger
	enrollment services.EnrollmentService
}

func NewMembershipHandler(log *logger.Logger, enrollment services.EnrollmentService) *MembershipHandler {
	return &MembershipHandler{
		log:        log.With("handler", "MembershipHandler"),
		enrollment: enrollment,
	}
}

// GET /api/courses/:id/membership
func (h *MembershipHandler) GetMembership(c *gin.Context) {
	learner, courseID, ok := h.target(c)
	if !ok {
		return
	}
	state, err := h.enrollment.GetMembership(c.Request.Context(), nil, learner, courseID)
	if err != nil {
		h.log.Error("GetMembership failed", "error", err, "learner_id", learner, "course_id", courseID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_id": courseID, "state": state})
}

// POST /api/courses/:id/enroll
func (h *MembershipHandler) Enroll(c *gin.Context) {
	h.change(c, "Enroll", h.enrollment.Enroll)
}

// POST /api/courses/:id/wishlist
func (h *MembershipHandler) AddToWishlist(c *gin.Context) {
	h.change(c, "AddToWishlist", h.enrollment.AddToWishlist)
}

// DELETE /api/courses/:id/wishlist
func (h *MembershipHandler) RemoveFromWishlist(c *gin.Context) {
	h.change(c, "RemoveFromWishlist", h.enrollment.RemoveFromWishlist)
}

// GET /api/me/enrollments
func (h *MembershipHandler) ListMyEnrollments(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	list, err := h.enrollment.ListEnrollments(c.Request.Context(), nil, learner)
	if err != nil {
		h.log.Error("ListMyEnrollments failed", "error", err, "learner_id", learner)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": list})
}

// GET /api/me/wishlist
func (h *MembershipHandler) ListMyWishlist(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	list, err := h.enrollment.ListWishlist(c.Request.Context(), nil, learner)
	if err != nil {
		h.log.Error("ListMyWishlist failed", "error", err, "learner_id", learner)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"wishlist": list})
}

type membershipOp func(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.MembershipChange, error)

func (h *MembershipHandler) change(c *gin.Context, name string, op membershipOp) {
	learner, courseID, ok := h.target(c)
	if !ok {
		return
	}
	change, err := op(c.Request.Context(), nil, learner, courseID)
	if err != nil {
		h.log.Warn(name+" failed", "error", err, "learner_id", learner, "course_id", courseID)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, change)
}

func (h *MembershipHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	learner, ok := learnerID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	courseID, ok := uuidParam(c, "id", "invalid_course_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return learner, courseID, true
}
