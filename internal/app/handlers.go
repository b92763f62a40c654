package app

import (
	"gorm.io/gorm"

	httpH "github.com/vinnu2910/edutainverse/internal/http/handlers"
	httpMW "github.com/vinnu2910/edutainverse/internal/http/middleware"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Course      *httpH.CourseHandler
	Progress    *httpH.ProgressHandler
	Membership  *httpH.MembershipHandler
	AdminCourse *httpH.AdminCourseHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db),
		Course:      httpH.NewCourseHandler(log, services.Catalog),
		Progress:    httpH.NewProgressHandler(log, services.Progress),
		Membership:  httpH.NewMembershipHandler(log, services.Enrollment),
		AdminCourse: httpH.NewAdminCourseHandler(log, services.Editor, services.Enrollment),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}
