package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepo interface {
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.WishlistEntry, bool, error)
	Get(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.WishlistEntry, error)
	GetByLearnerID(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.WishlistEntry, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (bool, error)
	DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
}

type wishlistRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWishlistRepo(db *gorm.DB, baseLog *logger.Logger) WishlistRepo {
	repoLog := baseLog.With("repo", "WishlistRepo")
	return &wishlistRepo{db: db, log: repoLog}
}

func (r *wishlistRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.WishlistEntry, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if learnerID == uuid.Nil || courseID == uuid.Nil {
		return nil, false, gorm.ErrInvalidData
	}

	entry := &types.WishlistEntry{LearnerID: learnerID, CourseID: courseID}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return nil, false, res.Error
	}

	stored, err := r.Get(ctx, transaction, learnerID, courseID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return stored, res.RowsAffected > 0, nil
}

// Get returns nil, nil when the course is not wishlisted.
func (r *wishlistRepo) Get(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (*types.WishlistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.WishlistEntry
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

func (r *wishlistRepo) GetByLearnerID(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]*types.WishlistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.WishlistEntry
	if err := transaction.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("created_at DESC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *wishlistRepo) Delete(ctx context.Context, tx *gorm.DB, learnerID, courseID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		Delete(&types.WishlistEntry{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *wishlistRepo) DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(courseIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Delete(&types.WishlistEntry{}).Error
}
