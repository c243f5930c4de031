package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/supportbot/internal/common"
	"github.com/suPer8Hu/supportbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/supportbot/internal/httpapi/middleware"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler, adminSecret string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	// the chat widget is served from other origins
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
	}))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// chat + feedback (public)
	r.POST("/get_response", h.GetResponse)
	r.POST("/feedback", h.SubmitFeedback)

	// admin (bearer JWT when ADMIN_JWT_SECRET is set)
	admin := r.Group("/")
	admin.Use(middleware.AdminAuth(adminSecret))
	admin.POST("/retrain", h.Retrain)
	admin.GET("/sessions", h.ListSessions)
	admin.GET("/sessions/:session_id", h.GetSession)
	admin.GET("/ml_stats", h.MLStats)
	admin.GET("/predictions", h.ListPredictions)
	return r
}
