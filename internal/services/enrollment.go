package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/cache"
	"github.com/vinnu2910/edutainverse/internal/data/dberr"
	"github.com/vinnu2910/edutainverse/internal/data/repos"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
	"github.com/vinnu2910/edutainverse/internal/domain/learning"
	"github.com/vinnu2910/edutainverse/internal/observability"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

type EnrollmentService interface {
	GetMembership(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (types.MembershipState, error)
	AddToWishlist(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.MembershipChange, error)
	RemoveFromWishlist(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.MembershipChange, error)
	// Enroll creates the enrollment at progress 0 and drops any wishlist entry
	// in one transaction, then recounts the course's enrollments.
	Enroll(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.MembershipChange, error)
	ListEnrollments(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.EnrolledCourse, error)
	ListWishlist(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.WishlistedCourse, error)
	// RecountEnrollments rewrites the course counter from live enrollment rows.
	RecountEnrollments(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	wishlistRepo   repos.WishlistRepo
	cache          cache.ProgressCache
	metrics        *observability.Metrics
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	wishlistRepo repos.WishlistRepo,
	progressCache cache.ProgressCache,
) EnrollmentService {
	serviceLog := baseLog.With("service", "EnrollmentService")
	if progressCache == nil {
		progressCache = cache.NoopProgressCache{}
	}
	return &enrollmentService{
		db:             db,
		log:            serviceLog,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		wishlistRepo:   wishlistRepo,
		cache:          progressCache,
		metrics:        observability.Current(),
	}
}

type membershipRows struct {
	enrollment *types.Enrollment
	wishlist   *types.WishlistEntry
}

func (r membershipRows) state() types.MembershipState {
	return learning.DeriveMembershipState(r.enrollment != nil, r.wishlist != nil)
}

func (s *enrollmentService) loadMembership(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, op string) (membershipRows, error) {
	var rows membershipRows
	if learnerID == uuid.Nil || courseID == uuid.Nil {
		return rows, apperr.Validation(op, "learner and course are required")
	}
	e, err := s.enrollmentRepo.Get(ctx, tx, learnerID, courseID)
	if err != nil {
		return rows, dberr.Map(op, err)
	}
	w, err := s.wishlistRepo.Get(ctx, tx, learnerID, courseID)
	if err != nil {
		return rows, dberr.Map(op, err)
	}
	rows.enrollment, rows.wishlist = e, w
	return rows, nil
}

func (s *enrollmentService) requireCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, op string) error {
	rows, err := s.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return dberr.Map(op, err)
	}
	if len(rows) == 0 {
		return apperr.NotFound(op, "course %s not found", courseID)
	}
	return nil
}

func (s *enrollmentService) GetMembership(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (types.MembershipState, error) {
	rows, err := s.loadMembership(ctx, tx, learnerID, courseID, "GetMembership")
	if err != nil {
		return types.MembershipUnrelated, err
	}
	return rows.state(), nil
}

func (s *enrollmentService) AddToWishlist(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.MembershipChange, error) {
	const op = "AddToWishlist"
	rows, err := s.loadMembership(ctx, tx, learnerID, courseID, op)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourse(ctx, tx, courseID, op); err != nil {
		return nil, err
	}

	change := newChange(courseID, learning.ActionAddToWishlist, rows.state())
	change.Enrollment = rows.enrollment
	if change.Changed {
		_, created, err := s.wishlistRepo.CreateIfAbsent(ctx, tx, learnerID, courseID)
		if err != nil {
			return nil, dberr.Map(op, err)
		}
		change.Changed = created
	}
	s.metrics.IncMembership(ctx, string(change.Action), change.Changed)
	return change, nil
}

func (s *enrollmentService) RemoveFromWishlist(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.MembershipChange, error) {
	const op = "RemoveFromWishlist"
	rows, err := s.loadMembership(ctx, tx, learnerID, courseID, op)
	if err != nil {
		return nil, err
	}

	change := newChange(courseID, learning.ActionRemoveFromWishlist, rows.state())
	change.Enrollment = rows.enrollment
	if change.Changed {
		removed, err := s.wishlistRepo.Delete(ctx, tx, learnerID, courseID)
		if err != nil {
			return nil, dberr.Map(op, err)
		}
		change.Changed = removed
	}
	s.metrics.IncMembership(ctx, string(change.Action), change.Changed)
	return change, nil
}

func (s *enrollmentService) Enroll(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.MembershipChange, error) {
	const op = "Enroll"
	rows, err := s.loadMembership(ctx, tx, learnerID, courseID, op)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourse(ctx, tx, courseID, op); err != nil {
		return nil, err
	}

	change := newChange(courseID, learning.ActionEnroll, rows.state())
	if !change.Changed {
		change.Enrollment = rows.enrollment
		s.metrics.IncMembership(ctx, string(change.Action), false)
		return change, nil
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var created bool
	err = transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		enrollment, ok, err := s.enrollmentRepo.CreateIfAbsent(ctx, txx, &types.Enrollment{
			LearnerID: learnerID,
			CourseID:  courseID,
			Progress:  0,
		})
		if err != nil {
			return err
		}
		if _, err := s.wishlistRepo.Delete(ctx, txx, learnerID, courseID); err != nil {
			return err
		}
		change.Enrollment = enrollment
		created = ok
		return nil
	})
	if err != nil {
		s.log.Error("Enroll failed", "learner_id", learnerID, "course_id", courseID, "error", err)
		return nil, dberr.Map(op, err)
	}
	// A concurrent enroll may have won the insert; the state is Enrolled either way.
	change.Changed = created || rows.wishlist != nil

	if _, err := s.RecountEnrollments(ctx, tx, courseID); err != nil {
		s.log.Warn("Enrollment recount failed", "course_id", courseID, "error", err)
	}
	if err := s.cache.SetLastSynced(ctx, learnerID, courseID, change.Enrollment.Progress); err != nil {
		s.log.Warn("Progress cache write failed", "learner_id", learnerID, "course_id", courseID, "error", err)
	}
	s.metrics.IncMembership(ctx, string(change.Action), change.Changed)
	s.log.Info("Learner enrolled", "learner_id", learnerID, "course_id", courseID, "from", change.From)
	return change, nil
}

func (s *enrollmentService) RecountEnrollments(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int, error) {
	const op = "RecountEnrollments"
	if err := s.requireCourse(ctx, tx, courseID, op); err != nil {
		return 0, err
	}
	n, err := s.enrollmentRepo.CountByCourseID(ctx, tx, courseID)
	if err != nil {
		return 0, dberr.Map(op, err)
	}
	if err := s.courseRepo.UpdateEnrollmentCount(ctx, tx, courseID, int(n)); err != nil {
		return 0, dberr.Map(op, err)
	}
	return int(n), nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.EnrolledCourse, error) {
	const op = "ListEnrollments"
	if learnerID == uuid.Nil {
		return nil, apperr.Validation(op, "learner is required")
	}
	enrollments, err := s.enrollmentRepo.GetByLearnerID(ctx, tx, learnerID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	ids := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := s.coursesByID(ctx, tx, ids, op)
	if err != nil {
		return nil, err
	}

	out := make([]*types.EnrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		c, ok := courses[e.CourseID]
		if !ok {
			continue
		}
		out = append(out, &types.EnrolledCourse{Course: c, Enrollment: e})
	}
	return out, nil
}

func (s *enrollmentService) ListWishlist(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.WishlistedCourse, error) {
	const op = "ListWishlist"
	if learnerID == uuid.Nil {
		return nil, apperr.Validation(op, "learner is required")
	}
	entries, err := s.wishlistRepo.GetByLearnerID(ctx, tx, learnerID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, w := range entries {
		ids = append(ids, w.CourseID)
	}
	courses, err := s.coursesByID(ctx, tx, ids, op)
	if err != nil {
		return nil, err
	}

	out := make([]*types.WishlistedCourse, 0, len(entries))
	for _, w := range entries {
		c, ok := courses[w.CourseID]
		if !ok {
			continue
		}
		out = append(out, &types.WishlistedCourse{Course: c, Entry: w})
	}
	return out, nil
}

// coursesByID drops soft-deleted courses, so listings skip them.
func (s *enrollmentService) coursesByID(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, op string) (map[uuid.UUID]*types.Course, error) {
	out := make(map[uuid.UUID]*types.Course, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.courseRepo.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

func newChange(courseID uuid.UUID, action learning.MembershipAction, from types.MembershipState) *types.MembershipChange {
	to, changed := learning.NextMembershipState(from, action)
	return &types.MembershipChange{
		CourseID: courseID,
		Action:   action,
		From:     from,
		To:       to,
		Changed:  changed,
	}
}
