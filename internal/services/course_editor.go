package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
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

type CourseEditorService interface {
	// OpenDraft loads a persisted course as an editable draft with its
	// baseline captured.
	OpenDraft(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseDraft, error)
	// Save reconciles the draft against the store. The error is non-nil only
	// when nothing below the course row was attempted (validation, missing
	// course, course save failure); item failures are reported in the
	// SaveReport. On return the draft's pending refs that were created are
	// persisted refs and its baseline is recaptured.
	Save(ctx context.Context, tx *gorm.DB, draft *types.CourseDraft) (*types.SaveReport, error)
	// DeleteCourse removes a course and everything hanging off it in one
	// transaction.
	DeleteCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type courseEditorService struct {
	db             *gorm.DB
	log            *logger.Logger
	hierarchy      HierarchyService
	courseRepo     repos.CourseRepo
	moduleRepo     repos.ModuleRepo
	videoRepo      repos.VideoRepo
	progressRepo   repos.ProgressRecordRepo
	enrollmentRepo repos.EnrollmentRepo
	wishlistRepo   repos.WishlistRepo
	cache          cache.ProgressCache
	metrics        *observability.Metrics
}

func NewCourseEditorService(
	db *gorm.DB,
	baseLog *logger.Logger,
	hierarchy HierarchyService,
	courseRepo repos.CourseRepo,
	moduleRepo repos.ModuleRepo,
	videoRepo repos.VideoRepo,
	progressRepo repos.ProgressRecordRepo,
	enrollmentRepo repos.EnrollmentRepo,
	wishlistRepo repos.WishlistRepo,
	progressCache cache.ProgressCache,
) CourseEditorService {
	serviceLog := baseLog.With("service", "CourseEditorService")
	if progressCache == nil {
		progressCache = cache.NoopProgressCache{}
	}
	return &courseEditorService{
		db:             db,
		log:            serviceLog,
		hierarchy:      hierarchy,
		courseRepo:     courseRepo,
		moduleRepo:     moduleRepo,
		videoRepo:      videoRepo,
		progressRepo:   progressRepo,
		enrollmentRepo: enrollmentRepo,
		wishlistRepo:   wishlistRepo,
		cache:          progressCache,
		metrics:        observability.Current(),
	}
}

func (es *courseEditorService) OpenDraft(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseDraft, error) {
	const op = "OpenCourseDraft"
	course, err := es.getCourse(ctx, tx, courseID, op)
	if err != nil {
		return nil, err
	}
	tree, err := es.hierarchy.LoadTreeStrict(ctx, tx, courseID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistence, op, err)
	}
	return learning.DraftFromTree(course, tree), nil
}

func (es *courseEditorService) getCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, op string) (*types.Course, error) {
	if courseID == uuid.Nil {
		return nil, apperr.Validation(op, "course id is required")
	}
	rows, err := es.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, apperr.NotFound(op, "course %s not found", courseID)
	}
	return rows[0], nil
}

// saveRun carries the state of one Save call.
type saveRun struct {
	report  *types.SaveReport
	plan    learning.ReconcilePlan
	course  uuid.UUID
	actual  types.Baseline
	kept    types.IDSet
	started time.Time
}

func (es *courseEditorService) Save(ctx context.Context, tx *gorm.DB, draft *types.CourseDraft) (*types.SaveReport, error) {
	const op = "SaveCourseTree"
	if draft == nil {
		return nil, apperr.Validation(op, "draft is required")
	}
	if err := learning.ValidateDraft(draft); err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "editor.Save")
	defer span.End()

	run := &saveRun{started: time.Now()}

	var existing *types.Course
	if id, ok := draft.Ref.ID(); ok {
		course, err := es.getCourse(ctx, tx, id, op)
		if err != nil {
			return nil, err
		}
		existing = course
		tree, err := es.hierarchy.LoadTreeStrict(ctx, tx, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodePersistence, op, err)
		}
		run.actual = learning.CaptureBaseline(tree)
	} else {
		run.actual = types.Baseline{Captured: true, ModuleIDs: types.IDSet{}, VideoIDs: types.IDSet{}}
	}

	baseline := run.actual
	if draft.Baseline.Captured {
		baseline = draft.Baseline.Restrict(run.actual)
	}
	run.plan = learning.PlanReconcile(draft, baseline)
	run.report = learning.NewSaveReport(run.plan)
	run.kept = keptVideoIDs(run.plan)
	counts := run.plan.Counts()
	span.SetAttributes(
		attribute.String("course.ref", draft.Ref.String()),
		attribute.Int("plan.creates", counts.Creates()),
		attribute.Int("plan.deletes", counts.Deletes()),
		attribute.Int("plan.total", counts.Total()),
	)

	courseID, err := es.saveCourse(ctx, tx, run, existing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "course save failed")
		// The draft stays untouched so a retry still deletes what it removed.
		es.finish(ctx, run, nil)
		return run.report, err
	}
	run.course = courseID
	run.report.CourseID = courseID

	for _, mop := range run.plan.Modules {
		es.saveModule(ctx, tx, run, mop)
	}
	for _, id := range run.plan.DeleteVideoIDs {
		es.deleteVideo(ctx, tx, run, id)
	}
	for _, id := range run.plan.DeleteModuleIDs {
		es.deleteModule(ctx, tx, run, id)
	}

	es.finish(ctx, run, draft)
	if run.report.Status != learning.SaveSucceeded {
		span.SetStatus(codes.Error, string(run.report.Status))
	}
	return run.report, nil
}

func (es *courseEditorService) finish(ctx context.Context, run *saveRun, draft *types.CourseDraft) {
	run.report.Finalize()
	retryable := 0
	for _, o := range run.report.Outcomes {
		result := "ok"
		switch {
		case o.Skipped:
			result = "skipped"
		case o.Err != nil:
			result = "failed"
		}
		es.metrics.IncSaveItem(ctx, string(o.Entity), string(o.Op), result)
		if o.Err != nil && dberr.IsRetryable(o.Err) {
			retryable++
		}
	}
	es.metrics.ObserveSave(ctx, string(run.report.Status), time.Since(run.started))
	if draft != nil {
		draft.ApplyReport(run.report)
	}

	fields := []interface{}{
		"course_id", run.report.CourseID,
		"status", run.report.Status,
		"succeeded", run.report.Succeeded,
		"failed", run.report.Failed,
		"skipped", run.report.Skipped,
	}
	if run.report.Status == learning.SaveSucceeded {
		es.log.Info("Course tree saved", fields...)
		return
	}
	if run.report.Cancelled() {
		fields = append(fields, "cancelled", true)
	}
	if retryable > 0 {
		fields = append(fields, "retryable", retryable)
	}
	es.log.Warn("Course tree save incomplete", append(fields, "error", run.report.Err())...)
}

// saveCourse creates or updates the course row. Any error here is fatal for
// the whole save.
func (es *courseEditorService) saveCourse(ctx context.Context, tx *gorm.DB, run *saveRun, existing *types.Course) (uuid.UUID, error) {
	const op = "SaveCourse"
	outcome := types.ItemOutcome{
		Entity: learning.EntityCourse,
		Op:     run.plan.CourseOp,
		Ref:    run.plan.CourseRef,
		Title:  run.plan.Fields.Title,
	}

	if err := ctx.Err(); err != nil {
		outcome.Err = apperr.Wrap(apperr.CodePersistence, op, err)
		run.report.Record(outcome)
		return uuid.Nil, outcome.Err
	}

	if existing == nil {
		course := &types.Course{}
		run.plan.Fields.ApplyTo(course)
		created, err := es.courseRepo.Create(ctx, tx, []*types.Course{course})
		if err != nil || len(created) == 0 {
			if err == nil {
				err = gorm.ErrRecordNotFound
			}
			outcome.Err = dberr.Map(op, err)
			run.report.Record(outcome)
			return uuid.Nil, outcome.Err
		}
		outcome.ID = created[0].ID
		run.report.Record(outcome)
		return outcome.ID, nil
	}

	course := *existing
	run.plan.Fields.ApplyTo(&course)
	outcome.ID = course.ID
	if err := es.courseRepo.Update(ctx, tx, &course); err != nil {
		outcome.Err = dberr.Map(op, err)
		run.report.Record(outcome)
		return uuid.Nil, outcome.Err
	}
	run.report.Record(outcome)
	return course.ID, nil
}

func (es *courseEditorService) saveModule(ctx context.Context, tx *gorm.DB, run *saveRun, mop learning.ModuleOp) {
	outcome := types.ItemOutcome{
		Entity: learning.EntityModule,
		Op:     mop.Kind,
		Ref:    mop.Ref,
		Title:  mop.Draft.Title,
	}

	moduleID, err := es.writeModule(ctx, tx, run, mop)
	outcome.ID = moduleID
	if err != nil {
		outcome.Err = err
	}
	run.report.Record(outcome)

	// Without a module row the videos have nowhere to live.
	orphaned := moduleID == uuid.Nil
	for _, vop := range mop.Videos {
		if orphaned {
			vo := types.ItemOutcome{
				Entity:  learning.EntityVideo,
				Op:      vop.Kind,
				Ref:     vop.Ref,
				Title:   vop.Draft.Title,
				Skipped: true,
			}
			if id, ok := vop.Ref.ID(); ok {
				vo.ID = id
			}
			run.report.Record(vo)
			continue
		}
		es.saveVideo(ctx, tx, run, moduleID, vop)
	}
}

// writeModule returns the module's persisted id whenever the row is known to
// exist in this course, even if its update failed.
func (es *courseEditorService) writeModule(ctx context.Context, tx *gorm.DB, run *saveRun, mop learning.ModuleOp) (uuid.UUID, error) {
	const op = "SaveModule"
	if err := ctx.Err(); err != nil {
		id, _ := mop.Ref.ID()
		if !run.actual.ModuleIDs.Has(id) {
			id = uuid.Nil
		}
		return id, apperr.Wrap(apperr.CodePersistence, op, err)
	}

	row := &types.Module{
		CourseID:    run.course,
		Title:       mop.Draft.Title,
		Description: mop.Draft.Description,
		OrderIndex:  mop.Position,
	}

	if mop.Kind == learning.OpCreate {
		created, err := es.moduleRepo.Create(ctx, tx, []*types.Module{row})
		if err != nil {
			return uuid.Nil, dberr.Map(op, err)
		}
		if len(created) == 0 {
			return uuid.Nil, apperr.New(apperr.CodeInternal, op, "module create returned no row", nil)
		}
		return created[0].ID, nil
	}

	id, _ := mop.Ref.ID()
	if !run.actual.ModuleIDs.Has(id) {
		return uuid.Nil, apperr.NotFound(op, "module %s is not part of course %s", id, run.course)
	}
	row.ID = id
	if err := es.moduleRepo.Update(ctx, tx, row); err != nil {
		return id, dberr.Map(op, err)
	}
	return id, nil
}

func (es *courseEditorService) saveVideo(ctx context.Context, tx *gorm.DB, run *saveRun, moduleID uuid.UUID, vop learning.VideoOp) {
	const op = "SaveVideo"
	outcome := types.ItemOutcome{
		Entity: learning.EntityVideo,
		Op:     vop.Kind,
		Ref:    vop.Ref,
		Title:  vop.Draft.Title,
	}
	if id, ok := vop.Ref.ID(); ok {
		outcome.ID = id
	}

	if err := ctx.Err(); err != nil {
		outcome.Err = apperr.Wrap(apperr.CodePersistence, op, err)
		run.report.Record(outcome)
		return
	}

	row := &types.Video{
		ModuleID:      moduleID,
		Title:         vop.Draft.Title,
		VideoRef:      vop.Draft.VideoRef,
		DurationLabel: vop.Draft.DurationLabel,
		OrderIndex:    vop.Position,
	}

	if vop.Kind == learning.OpCreate {
		created, err := es.videoRepo.Create(ctx, tx, []*types.Video{row})
		switch {
		case err != nil:
			outcome.Err = dberr.Map(op, err)
		case len(created) == 0:
			outcome.Err = apperr.New(apperr.CodeInternal, op, "video create returned no row", nil)
		default:
			outcome.ID = created[0].ID
		}
		run.report.Record(outcome)
		return
	}

	if !run.actual.VideoIDs.Has(outcome.ID) {
		outcome.Err = apperr.NotFound(op, "video %s is not part of course %s", outcome.ID, run.course)
		run.report.Record(outcome)
		return
	}
	row.ID = outcome.ID
	if err := es.videoRepo.Update(ctx, tx, row); err != nil {
		outcome.Err = dberr.Map(op, err)
	}
	run.report.Record(outcome)
}

func (es *courseEditorService) deleteVideo(ctx context.Context, tx *gorm.DB, run *saveRun, videoID uuid.UUID) {
	const op = "DeleteVideo"
	outcome := types.ItemOutcome{Entity: learning.EntityVideo, Op: learning.OpDelete, Ref: learning.Persisted(videoID), ID: videoID}
	if err := ctx.Err(); err != nil {
		outcome.Err = apperr.Wrap(apperr.CodePersistence, op, err)
		run.report.Record(outcome)
		return
	}

	transaction := tx
	if transaction == nil {
		transaction = es.db
	}
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		ids := []uuid.UUID{videoID}
		if err := es.progressRepo.DeleteByVideoIDs(ctx, txx, ids); err != nil {
			return err
		}
		return es.videoRepo.DeleteByIDs(ctx, txx, ids)
	})
	if err != nil {
		outcome.Err = dberr.Map(op, err)
	}
	run.report.Record(outcome)
}

func (es *courseEditorService) deleteModule(ctx context.Context, tx *gorm.DB, run *saveRun, moduleID uuid.UUID) {
	const op = "DeleteModule"
	outcome := types.ItemOutcome{Entity: learning.EntityModule, Op: learning.OpDelete, Ref: learning.Persisted(moduleID), ID: moduleID}
	if err := ctx.Err(); err != nil {
		outcome.Err = apperr.Wrap(apperr.CodePersistence, op, err)
		run.report.Record(outcome)
		return
	}

	transaction := tx
	if transaction == nil {
		transaction = es.db
	}
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		remaining, err := es.videoRepo.GetByModuleID(ctx, txx, moduleID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(remaining))
		for _, v := range remaining {
			// A kept video still here means its move failed; deleting the
			// module would take it along.
			if run.kept.Has(v.ID) {
				return apperr.New(apperr.CodePrecondition, op, "module still holds video "+v.ID.String()+" kept by the draft", nil)
			}
			ids = append(ids, v.ID)
		}
		if err := es.progressRepo.DeleteByVideoIDs(ctx, txx, ids); err != nil {
			return err
		}
		if err := es.videoRepo.DeleteByIDs(ctx, txx, ids); err != nil {
			return err
		}
		return es.moduleRepo.DeleteByIDs(ctx, txx, []uuid.UUID{moduleID})
	})
	if err != nil {
		outcome.Err = dberr.Map(op, err)
	}
	run.report.Record(outcome)
}

func (es *courseEditorService) DeleteCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	const op = "DeleteCourse"
	if _, err := es.getCourse(ctx, tx, courseID, op); err != nil {
		return err
	}

	ctx, span := observability.Tracer().Start(ctx, "editor.DeleteCourse")
	defer span.End()
	span.SetAttributes(attribute.String("course.id", courseID.String()))

	transaction := tx
	if transaction == nil {
		transaction = es.db
	}
	var learners []uuid.UUID
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		enrolled, err := es.enrollmentRepo.GetLearnerIDsByCourseID(ctx, txx, courseID)
		if err != nil {
			return err
		}
		learners = enrolled

		modules, err := es.moduleRepo.GetByCourseID(ctx, txx, courseID)
		if err != nil {
			return err
		}
		moduleIDs := make([]uuid.UUID, 0, len(modules))
		for _, m := range modules {
			moduleIDs = append(moduleIDs, m.ID)
		}
		videos, err := es.videoRepo.GetByModuleIDs(ctx, txx, moduleIDs)
		if err != nil {
			return err
		}
		videoIDs := make([]uuid.UUID, 0, len(videos))
		for _, v := range videos {
			videoIDs = append(videoIDs, v.ID)
		}

		courseIDs := []uuid.UUID{courseID}
		if err := es.progressRepo.DeleteByVideoIDs(ctx, txx, videoIDs); err != nil {
			return err
		}
		if err := es.videoRepo.DeleteByModuleIDs(ctx, txx, moduleIDs); err != nil {
			return err
		}
		if err := es.moduleRepo.DeleteByCourseIDs(ctx, txx, courseIDs); err != nil {
			return err
		}
		if err := es.enrollmentRepo.DeleteByCourseIDs(ctx, txx, courseIDs); err != nil {
			return err
		}
		if err := es.wishlistRepo.DeleteByCourseIDs(ctx, txx, courseIDs); err != nil {
			return err
		}
		return es.courseRepo.SoftDeleteByIDs(ctx, txx, courseIDs)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		es.log.Error("Course delete failed", "course_id", courseID, "error", err)
		return dberr.Map(op, err)
	}
	// Cached progress would otherwise keep reporting these learners as enrolled.
	for _, learnerID := range learners {
		if err := es.cache.Forget(ctx, learnerID, courseID); err != nil {
			es.log.Warn("Progress cache evict failed", "learner_id", learnerID, "course_id", courseID, "error", err)
		}
	}
	es.log.Info("Course deleted", "course_id", courseID, "enrollments_removed", len(learners))
	return nil
}

func keptVideoIDs(plan learning.ReconcilePlan) types.IDSet {
	out := types.IDSet{}
	for _, m := range plan.Modules {
		for _, v := range m.Videos {
			if id, ok := v.Ref.ID(); ok {
				out[id] = struct{}{}
			}
		}
	}
	return out
}
