package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepo interface {
	// CreateIfAbsent inserts the enrollment unless (learner, course) already
	// exists, and returns the stored row either way.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) (*types.Enrollment, bool, error)
	Get(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.Enrollment, error)
	GetByLearnerID(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.Enrollment, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, progress int) error
	CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	GetLearnerIDsByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error)
	DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) (*types.Enrollment, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if enrollment == nil || enrollment.LearnerID == uuid.Nil || enrollment.CourseID == uuid.Nil {
		return nil, false, gorm.ErrInvalidData
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(enrollment)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0

	stored, err := r.Get(ctx, transaction, enrollment.LearnerID, enrollment.CourseID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return stored, created, nil
}

// Get returns nil, nil when the learner is not enrolled.
func (r *enrollmentRepo) Get(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Enrollment
	err := transaction.WithContext(ctx).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *enrollmentRepo) GetByLearnerID(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Enrollment
	if err := transaction.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("enrolled_at DESC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateProgress returns gorm.ErrRecordNotFound when no enrollment matches.
func (r *enrollmentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID, progress int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Enrollment{}).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepo) CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(ctx).
		Model(&types.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *enrollmentRepo) GetLearnerIDsByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Enrollment{}).
		Where("course_id = ?", courseID).
		Order("learner_id ASC").
		Pluck("learner_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *enrollmentRepo) DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(courseIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Delete(&types.Enrollment{}).Error
}
