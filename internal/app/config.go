package app

import (
	"time"

	types "github.com/vinnu2910/edutainverse/internal/domain"
	"github.com/vinnu2910/edutainverse/internal/domain/learning"
	"github.com/vinnu2910/edutainverse/internal/http/middleware"
	"github.com/vinnu2910/edutainverse/internal/platform/envutil"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	JWTSecretKey string
	JWTIssuer    string
	AdminRole    string

	ProgressPolicy types.ProgressPolicy
	CORSOrigins    []string

	ServiceName string
	Environment string
	Version     string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr:        envutil.String("HTTP_ADDR", ":8080", log),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second, log),

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", "", log),
		JWTIssuer:    envutil.String("JWT_ISSUER", "", log),
		AdminRole:    envutil.String("ADMIN_ROLE", "admin", log),

		ProgressPolicy: learning.ParseProgressPolicy(envutil.String("PROGRESS_POLICY", string(types.ProgressRecompute), log)),
		CORSOrigins:    envutil.List("CORS_ALLOWED_ORIGINS", middleware.DefaultCORSOrigins, log),

		ServiceName: envutil.String("OTEL_SERVICE_NAME", "edutainverse", log),
		Environment: envutil.String("APP_ENV", "development", log),
		Version:     envutil.String("APP_VERSION", "dev", log),
	}
}
