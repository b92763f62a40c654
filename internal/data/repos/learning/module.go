package learning

import (
	"context"
	"time"

	"github.com/google/uuid"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"gorm.io/gorm"
)

type ModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error)
	Update(ctx context.Context, tx *gorm.DB, module *types.Module) error
	GetByIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) ([]*types.Module, error)
	GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Module, error)
	GetByCourseIDWithVideos(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ModuleTree, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error
	DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	repoLog := baseLog.With("repo", "ModuleRepo")
	return &moduleRepo{db: db, log: repoLog}
}

// moduleWithVideos is the read model for the single-query tree load.
type moduleWithVideos struct {
	types.Module
	Videos []*types.Video `gorm:"foreignKey:ModuleID;references:ID"`
}

func (moduleWithVideos) TableName() string { return "course_module" }

func (r *moduleRepo) Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(modules) == 0 {
		return []*types.Module{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// Update rewrites title, description and order_index unconditionally.
func (r *moduleRepo) Update(ctx context.Context, tx *gorm.DB, module *types.Module) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if module == nil || module.ID == uuid.Nil {
		return gorm.ErrMissingWhereClause
	}

	res := transaction.WithContext(ctx).
		Model(&types.Module{}).
		Where("id = ?", module.ID).
		Updates(map[string]interface{}{
			"title":       module.Title,
			"description": module.Description,
			"order_index": module.OrderIndex,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *moduleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Module
	if len(moduleIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", moduleIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Module
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) GetByCourseIDWithVideos(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.ModuleTree, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*moduleWithVideos
	if err := transaction.WithContext(ctx).
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, created_at ASC, id ASC")
		}).
		Where("course_id = ?", courseID).
		Order("order_index ASC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*types.ModuleTree, 0, len(rows))
	for _, row := range rows {
		videos := row.Videos
		if videos == nil {
			videos = []*types.Video{}
		}
		out = append(out, &types.ModuleTree{Module: row.Module, Videos: videos})
	}
	return out, nil
}

func (r *moduleRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(moduleIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", moduleIDs).
		Delete(&types.Module{}).Error
}

func (r *moduleRepo) DeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(courseIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Delete(&types.Module{}).Error
}
