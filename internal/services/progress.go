package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
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

type ProgressService interface {
	// ToggleVideoCompletion flips one (learner, video) completion and returns
	// the new state. Calls for different videos are independent.
	ToggleVideoCompletion(ctx context.Context, tx *gorm.DB, learnerID, videoID uuid.UUID) (types.CompletionState, error)
	// ToggleCourseVideo toggles a video that must belong to courseID, then
	// recomputes and syncs the learner's course progress.
	ToggleCourseVideo(ctx context.Context, tx *gorm.DB, learnerID, courseID, videoID uuid.UUID) (*types.ToggleResult, error)
	// GetCourseProgress computes progress from current completions and syncs
	// it onto the enrollment when it changed.
	GetCourseProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.CourseProgress, error)
	SyncEnrollmentProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, pct int) error
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	hierarchy      HierarchyService
	progressRepo   repos.ProgressRecordRepo
	enrollmentRepo repos.EnrollmentRepo
	cache          cache.ProgressCache
	policy         types.ProgressPolicy
	metrics        *observability.Metrics
	now            func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	hierarchy HierarchyService,
	progressRepo repos.ProgressRecordRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressCache cache.ProgressCache,
	policy types.ProgressPolicy,
) ProgressService {
	serviceLog := baseLog.With("service", "ProgressService")
	if progressCache == nil {
		progressCache = cache.NoopProgressCache{}
	}
	if policy == "" {
		policy = types.ProgressRecompute
	}
	return &progressService{
		db:             db,
		log:            serviceLog,
		hierarchy:      hierarchy,
		progressRepo:   progressRepo,
		enrollmentRepo: enrollmentRepo,
		cache:          progressCache,
		policy:         policy,
		metrics:        observability.Current(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (ps *progressService) ToggleVideoCompletion(ctx context.Context, tx *gorm.DB, learnerID, videoID uuid.UUID) (types.CompletionState, error) {
	const op = "ToggleVideoCompletion"
	state := types.CompletionState{VideoID: videoID}
	if learnerID == uuid.Nil || videoID == uuid.Nil {
		return state, apperr.Validation(op, "learner and video are required")
	}

	current, err := ps.progressRepo.Get(ctx, tx, learnerID, videoID)
	if err != nil {
		return state, dberr.Map(op, err)
	}

	if current != nil && current.Completed {
		if err := ps.progressRepo.DeleteByLearnerAndVideo(ctx, tx, learnerID, videoID); err != nil {
			return state, dberr.Map(op, err)
		}
		ps.metrics.IncToggle(ctx, false)
		return state, nil
	}

	now := ps.now()
	saved, err := ps.progressRepo.Upsert(ctx, tx, &types.ProgressRecord{
		LearnerID:   learnerID,
		VideoID:     videoID,
		Completed:   true,
		CompletedAt: &now,
	})
	if err != nil {
		return state, dberr.Map(op, err)
	}
	state.Completed = true
	state.CompletedAt = saved.CompletedAt
	ps.metrics.IncToggle(ctx, true)
	return state, nil
}

func (ps *progressService) ToggleCourseVideo(ctx context.Context, tx *gorm.DB, learnerID, courseID, videoID uuid.UUID) (*types.ToggleResult, error) {
	const op = "ToggleCourseVideo"
	ctx, span := observability.Tracer().Start(ctx, "progress.ToggleCourseVideo")
	defer span.End()
	span.SetAttributes(
		attribute.String("course.id", courseID.String()),
		attribute.String("video.id", videoID.String()),
	)

	tree, err := ps.hierarchy.LoadTreeStrict(ctx, tx, courseID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistence, op, err)
	}
	videoIDs := learning.CourseVideoIDs(tree)
	if !videoIDs.Has(videoID) {
		return nil, apperr.NotFound(op, "video %s is not part of course %s", videoID, courseID)
	}

	completion, err := ps.ToggleVideoCompletion(ctx, tx, learnerID, videoID)
	if err != nil {
		return nil, err
	}

	progress, err := ps.refresh(ctx, tx, learnerID, courseID, videoIDs)
	if err != nil {
		return nil, err
	}
	return &types.ToggleResult{Completion: completion, Progress: *progress}, nil
}

func (ps *progressService) GetCourseProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.CourseProgress, error) {
	const op = "GetCourseProgress"
	if learnerID == uuid.Nil || courseID == uuid.Nil {
		return nil, apperr.Validation(op, "learner and course are required")
	}
	ctx, span := observability.Tracer().Start(ctx, "progress.GetCourseProgress")
	defer span.End()
	span.SetAttributes(attribute.String("course.id", courseID.String()))

	tree := ps.hierarchy.LoadTree(ctx, tx, courseID)
	return ps.refresh(ctx, tx, learnerID, courseID, learning.CourseVideoIDs(tree))
}

// refresh computes progress against the course's current videos and writes
// it back when the policy-resolved value differs from what is stored.
func (ps *progressService) refresh(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, videoIDs types.IDSet) (*types.CourseProgress, error) {
	const op = "RefreshCourseProgress"

	completedIDs := []uuid.UUID{}
	if len(videoIDs) > 0 {
		ids, err := ps.progressRepo.GetCompletedVideoIDs(ctx, tx, learnerID, videoIDs.Sorted()...)
		if err != nil {
			return nil, dberr.Map(op, err)
		}
		completedIDs = ids
	}
	completed := learning.NewIDSet(completedIDs...).Intersect(videoIDs)
	pct := learning.ComputeProgress(len(videoIDs), completed)

	out := &types.CourseProgress{
		CourseID:          courseID,
		TotalVideos:       len(videoIDs),
		CompletedVideoIDs: completed.Sorted(),
		Percent:           pct,
	}

	if cached, ok := ps.cachedProgress(ctx, learnerID, courseID); ok && ps.policy.Resolve(cached, pct) == cached {
		out.Enrolled = true
		out.EnrollmentProgress = cached
		ps.metrics.IncProgressSync(ctx, "skipped")
		return out, nil
	}

	enrollment, err := ps.enrollmentRepo.Get(ctx, tx, learnerID, courseID)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if enrollment == nil {
		ps.forget(ctx, learnerID, courseID)
		return out, nil
	}
	out.Enrolled = true
	out.EnrollmentProgress = enrollment.Progress

	target := ps.policy.Resolve(enrollment.Progress, pct)
	if target == enrollment.Progress {
		ps.remember(ctx, learnerID, courseID, target)
		ps.metrics.IncProgressSync(ctx, "skipped")
		return out, nil
	}
	if err := ps.SyncEnrollmentProgress(ctx, tx, learnerID, courseID, target); err != nil {
		// The enrollment was removed after it was read.
		if apperr.IsCode(err, apperr.CodeNotFound) {
			out.Enrolled = false
			out.EnrollmentProgress = 0
			return out, nil
		}
		return nil, err
	}
	out.EnrollmentProgress = target
	out.Synced = true
	return out, nil
}

func (ps *progressService) SyncEnrollmentProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, pct int) error {
	const op = "SyncEnrollmentProgress"
	if pct < 0 || pct > 100 {
		return apperr.Validation(op, "progress %d outside 0..100", pct)
	}
	if err := ps.enrollmentRepo.UpdateProgress(ctx, tx, learnerID, courseID, pct); err != nil {
		ps.metrics.IncProgressSync(ctx, "failed")
		// A failed write must not leave a cached value that hides the retry.
		ps.forget(ctx, learnerID, courseID)
		return dberr.Map(op, err)
	}
	ps.metrics.IncProgressSync(ctx, "written")
	ps.remember(ctx, learnerID, courseID, pct)
	return nil
}

func (ps *progressService) cachedProgress(ctx context.Context, learnerID, courseID uuid.UUID) (int, bool) {
	pct, ok, err := ps.cache.LastSynced(ctx, learnerID, courseID)
	if err != nil {
		ps.log.Warn("Progress cache read failed", "learner_id", learnerID, "course_id", courseID, "error", err)
		return 0, false
	}
	return pct, ok
}

func (ps *progressService) remember(ctx context.Context, learnerID, courseID uuid.UUID, pct int) {
	if err := ps.cache.SetLastSynced(ctx, learnerID, courseID, pct); err != nil {
		ps.log.Warn("Progress cache write failed", "learner_id", learnerID, "course_id", courseID, "error", err)
	}
}

func (ps *progressService) forget(ctx context.Context, learnerID, courseID uuid.UUID) {
	if err := ps.cache.Forget(ctx, learnerID, courseID); err != nil {
		ps.log.Warn("Progress cache evict failed", "learner_id", learnerID, "course_id", courseID, "error", err)
	}
}
