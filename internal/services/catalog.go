package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/dberr"
	"github.com/vinnu2910/edutainverse/internal/data/repos"
	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
	"github.com/vinnu2910/edutainverse/internal/domain/learning"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

const maxCatalogPageSize = 100

type CatalogService interface {
	ListCourses(ctx context.Context, tx *gorm.DB, filter repos.CourseFilter) ([]*types.Course, error)
	// GetCourse returns nil, nil for a missing course.
	GetCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	// GetCourseDetail returns nil, nil for a missing course. The tree degrades
	// to empty when it cannot be loaded.
	GetCourseDetail(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseDetail, error)
}

type catalogService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	hierarchy  HierarchyService
}

func NewCatalogService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo, hierarchy HierarchyService) CatalogService {
	serviceLog := baseLog.With("service", "CatalogService")
	return &catalogService{
		db:         db,
		log:        serviceLog,
		courseRepo: courseRepo,
		hierarchy:  hierarchy,
	}
}

func (s *catalogService) ListCourses(ctx context.Context, tx *gorm.DB, filter repos.CourseFilter) ([]*types.Course, error) {
	const op = "ListCourses"
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return nil, apperr.Validation(op, "unknown difficulty %q", filter.Difficulty)
	}
	if filter.Limit <= 0 || filter.Limit > maxCatalogPageSize {
		filter.Limit = maxCatalogPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	courses, err := s.courseRepo.List(ctx, tx, filter)
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	return courses, nil
}

func (s *catalogService) GetCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	const op = "GetCourse"
	if courseID == uuid.Nil {
		return nil, apperr.Validation(op, "course id is required")
	}
	rows, err := s.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, dberr.Map(op, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *catalogService) GetCourseDetail(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.CourseDetail, error) {
	course, err := s.GetCourse(ctx, tx, courseID)
	if err != nil || course == nil {
		return nil, err
	}
	tree := s.hierarchy.LoadTree(ctx, tx, courseID)
	return &types.CourseDetail{
		Course:      course,
		Modules:     tree,
		TotalVideos: len(learning.CourseVideoIDs(tree)),
	}, nil
}
