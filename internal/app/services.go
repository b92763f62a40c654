package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/vinnu2910/edutainverse/internal/data/cache"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
	"github.com/vinnu2910/edutainverse/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Hierarchy  services.HierarchyService
	Catalog    services.CatalogService
	Progress   services.ProgressService
	Enrollment services.EnrollmentService
	Editor     services.CourseEditorService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, progressCache cache.ProgressCache) (Services, error) {
	log.Info("Wiring services...")

	authService, err := services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	hierarchy := services.NewHierarchyService(db, log, repos.Module, repos.Video)
	return Services{
		Auth:      authService,
		Hierarchy: hierarchy,
		Catalog:   services.NewCatalogService(db, log, repos.Course, hierarchy),
		Progress: services.NewProgressService(
			db, log,
			hierarchy,
			repos.Progress,
			repos.Enrollment,
			progressCache,
			cfg.ProgressPolicy,
		),
		Enrollment: services.NewEnrollmentService(
			db, log,
			repos.Course,
			repos.Enrollment,
			repos.Wishlist,
			progressCache,
		),
		Editor: services.NewCourseEditorService(
			db, log,
			hierarchy,
			repos.Course,
			repos.Module,
			repos.Video,
			repos.Progress,
			repos.Enrollment,
			repos.Wishlist,
			progressCache,
		),
	}, nil
}
