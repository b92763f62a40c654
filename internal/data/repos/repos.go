package repos

import (
	"github.com/vinnu2910/edutainverse/internal/data/repos/learning"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"gorm.io/gorm"
)

type CourseRepo = learning.CourseRepo
type CourseFilter = learning.CourseFilter
type ModuleRepo = learning.ModuleRepo
type VideoRepo = learning.VideoRepo

type EnrollmentRepo = learning.EnrollmentRepo
type ProgressRecordRepo = learning.ProgressRecordRepo
type WishlistRepo = learning.WishlistRepo

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return learning.NewModuleRepo(db, baseLog)
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return learning.NewVideoRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return learning.NewProgressRecordRepo(db, baseLog)
}

func NewWishlistRepo(db *gorm.DB, baseLog *logger.Logger) WishlistRepo {
	return learning.NewWishlistRepo(db, baseLog)
}
