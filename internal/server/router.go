package server

import (
	"filevault/internal/auth"
	"filevault/internal/config"
	"filevault/internal/file"
	"filevault/internal/logger"
	"filevault/internal/metrics"
	"filevault/internal/presigned"
	"filevault/internal/share"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	Logger       *zap.Logger
	DB           *pgxpool.Pool
	ObjectStore  *minio.Client
	AuthService  *auth.Service
	FileService  *file.Service
	ShareService *share.Service
	LinkService  *presigned.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
		if deps.ShareService != nil {
			share.RegisterRoutes(protected, deps.ShareService)
		}
		if deps.LinkService != nil {
			presigned.RegisterRoutes(protected, deps.LinkService)
		}
	}

	return router
}
