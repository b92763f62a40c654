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

type ProgressRecordRepo interface {
	// GetCompletedVideoIDs lists the learner's completed videos, restricted to
	// videoIDs when any are given.
	GetCompletedVideoIDs(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, videoIDs ...uuid.UUID) ([]uuid.UUID, error)
	Get(ctx context.Context, tx *gorm.DB, learnerID, videoID uuid.UUID) (*types.ProgressRecord, error)
	Upsert(ctx context.Context, tx *gorm.DB, record *types.ProgressRecord) (*types.ProgressRecord, error)
	DeleteByLearnerAndVideo(ctx context.Context, tx *gorm.DB, learnerID, videoID uuid.UUID) error
	DeleteByVideoIDs(ctx context.Context, tx *gorm.DB, videoIDs []uuid.UUID) error
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	repoLog := baseLog.With("repo", "ProgressRecordRepo")
	return &progressRecordRepo{db: db, log: repoLog}
}

func (r *progressRecordRepo) GetCompletedVideoIDs(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, videoIDs ...uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).
		Model(&types.ProgressRecord{}).
		Where("learner_id = ? AND completed = ?", learnerID, true)
	if len(videoIDs) > 0 {
		q = q.Where("video_id IN ?", videoIDs)
	}

	var ids []uuid.UUID
	if err := q.Pluck("video_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Get returns nil, nil when the learner has no record for the video.
func (r *progressRecordRepo) Get(ctx context.Context, tx *gorm.DB, learnerID, videoID uuid.UUID) (*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.ProgressRecord
	err := transaction.WithContext(ctx).
		Where("learner_id = ? AND video_id = ?", learnerID, videoID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert is keyed by (learner_id, video_id); retries converge on one row.
func (r *progressRecordRepo) Upsert(ctx context.Context, tx *gorm.DB, record *types.ProgressRecord) (*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if record == nil || record.LearnerID == uuid.Nil || record.VideoID == uuid.Nil {
		return nil, gorm.ErrInvalidData
	}
	now := time.Now().UTC()
	record.UpdatedAt = now
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
		}).
		Create(record).Error; err != nil {
		return nil, err
	}

	stored, err := r.Get(ctx, transaction, record.LearnerID, record.VideoID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return stored, nil
}

func (r *progressRecordRepo) DeleteByLearnerAndVideo(ctx context.Context, tx *gorm.DB, learnerID, videoID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("learner_id = ? AND video_id = ?", learnerID, videoID).
		Delete(&types.ProgressRecord{}).Error
}

func (r *progressRecordRepo) DeleteByVideoIDs(ctx context.Context, tx *gorm.DB, videoIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(videoIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("video_id IN ?", videoIDs).
		Delete(&types.ProgressRecord{}).Error
}
