package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/vinnu2910/edutainverse/internal/http/handlers"
	httpMW "github.com/vinnu2910/edutainverse/internal/http/middleware"
	"github.com/vinnu2910/edutainverse/internal/observability"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	AdminRole      string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	CourseHandler      *httpH.CourseHandler
	ProgressHandler    *httpH.ProgressHandler
	MembershipHandler  *httpH.MembershipHandler
	AdminCourseHandler *httpH.AdminCourseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Catalog (public)
	if cfg.CourseHandler != nil {
		api.GET("/courses", cfg.CourseHandler.ListCourses)
		api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Progress
		if cfg.ProgressHandler != nil {
			protected.GET("/courses/:id/progress", cfg.ProgressHandler.GetCourseProgress)
			protected.POST("/courses/:id/videos/:videoId/toggle", cfg.ProgressHandler.ToggleVideo)
		}

		// Enrollment + wishlist
		if cfg.MembershipHandler != nil {
			protected.GET("/courses/:id/membership", cfg.MembershipHandler.GetMembership)
			protected.POST("/courses/:id/enroll", cfg.MembershipHandler.Enroll)
			protected.POST("/courses/:id/wishlist", cfg.MembershipHandler.AddToWishlist)
			protected.DELETE("/courses/:id/wishlist", cfg.MembershipHandler.RemoveFromWishlist)
			protected.GET("/me/enrollments", cfg.MembershipHandler.ListMyEnrollments)
			protected.GET("/me/wishlist", cfg.MembershipHandler.ListMyWishlist)
		}
	}

	admin := protected.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireRole(cfg.AdminRole))
	if cfg.AdminCourseHandler != nil {
		admin.POST("/courses", cfg.AdminCourseHandler.CreateCourse)
		admin.GET("/courses/:id/tree", cfg.AdminCourseHandler.GetTree)
		admin.PUT("/courses/:id/tree", cfg.AdminCourseHandler.SaveTree)
		admin.DELETE("/courses/:id", cfg.AdminCourseHandler.DeleteCourse)
		admin.POST("/courses/:id/recount", cfg.AdminCourseHandler.RecountEnrollments)
	}

	return r
}
