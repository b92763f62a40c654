package app

import (
	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/repos"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

type Repos struct {
	Course     repos.CourseRepo
	Module     repos.ModuleRepo
	Video      repos.VideoRepo
	Enrollment repos.EnrollmentRepo
	Progress   repos.ProgressRecordRepo
	Wishlist   repos.WishlistRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Course:     repos.NewCourseRepo(db, log),
		Module:     repos.NewModuleRepo(db, log),
		Video:      repos.NewVideoRepo(db, log),
		Enrollment: repos.NewEnrollmentRepo(db, log),
		Progress:   repos.NewProgressRecordRepo(db, log),
		Wishlist:   repos.NewWishlistRepo(db, log),
	}
}
