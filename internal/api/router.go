package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/internal/cache"
	"github.com/xiaoxiunique/xhs-poster/internal/db"
	"github.com/xiaoxiunique/xhs-poster/internal/ingest"
	"github.com/xiaoxiunique/xhs-poster/internal/publisher"
	"github.com/xiaoxiunique/xhs-poster/internal/session"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
	"github.com/xiaoxiunique/xhs-poster/pkg/logging"
)

// Router wires the operator HTTP surface to the core components
type Router struct {
	session   *session.Manager
	publisher *publisher.Pipeline
	importer  *ingest.Importer
	accounts  *db.AccountRepository
	materials *db.MaterialRepository
	cache     *cache.Cache
	newClient func(cookie string) *xhs.Client
	logger    *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(sessionMgr *session.Manager, pipeline *publisher.Pipeline, importer *ingest.Importer,
	accounts *db.AccountRepository, materials *db.MaterialRepository, redisCache *cache.Cache,
	newClient func(cookie string) *xhs.Client) *Router {
	return &Router{
		session:   sessionMgr,
		publisher: pipeline,
		importer:  importer,
		accounts:  accounts,
		materials: materials,
		cache:     redisCache,
		newClient: newClient,
		logger:    logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(requestID())

	engine.GET("/health", r.healthHandler)

	api := engine.Group("/api")
	{
		api.GET("/accounts", r.listAccounts)
		api.POST("/accounts", r.createAccount)
		api.GET("/accounts/:id", r.getAccount)
		api.DELETE("/accounts/:id", r.deleteAccount)
		api.POST("/accounts/:id/activate", r.activateAccount)
		api.POST("/accounts/:id/check", r.checkAccount)

		api.POST("/posts/:id/publish", r.publishPost)

		api.POST("/search-topics", r.searchTopics)
		api.POST("/search-notes", r.searchNotes)

		api.DELETE("/notes/:id", r.deleteNote)
		api.POST("/notes/cleanup", r.cleanupNotes)

		api.POST("/materials/import", r.importMaterials)
		api.GET("/materials", r.listMaterials)
	}
}

// requestID tags every request with an id for log correlation
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "xhs-poster",
	})
}

// respondError maps core error classes to HTTP statuses so the UI can
// render distinct messages without the core knowing about presentation.
func (r *Router) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoActiveAccount):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrAccountNotFound),
		errors.Is(err, publisher.ErrPostNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ingest.ErrInvalidUserRef):
		status = http.StatusBadRequest
	case errors.Is(err, xhs.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, xhs.ErrPermit),
		errors.Is(err, xhs.ErrUpload),
		errors.Is(err, xhs.ErrCreateNote),
		errors.Is(err, xhs.ErrListing),
		errors.Is(err, xhs.ErrDetail),
		errors.Is(err, xhs.ErrDelete),
		errors.Is(err, xhs.ErrSearch),
		errors.Is(err, xhs.ErrProbe):
		status = http.StatusBadGateway
	}

	r.logger.Error("Request failed",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err))

	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
