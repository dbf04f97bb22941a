package receiver_routers

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	receiverApi "github.com/rufaelfekadu/ramsalab-light/api/receiver-api/api"
	"github.com/rufaelfekadu/ramsalab-light/config"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"github.com/rufaelfekadu/ramsalab-light/pkg/utils"
)

// NewEngine builds the gin engine with recovery, request logging and, when
// origins are configured, CORS.
func NewEngine(cfg *config.AppConfig, logger commons.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	if origins := splitOrigins(cfg.AllowedOrigins); len(origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{utils.HEADER_REQUESTED_WITH, utils.HEADER_CONTENT_TYPE, utils.HEADER_ACCEPT},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	HealthCheckRoutes(cfg, engine, logger)
	SubmissionRoutes(cfg, engine, logger)
	return engine
}

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger) {
	logger.Info("Internal HealthCheckRoutes added to engine.")
	apiv1 := engine.Group("")
	hcApi := receiverApi.New(cfg, logger)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}

func SubmissionRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger) {
	logger.Info("SubmissionRoutes added to engine.")
	apiv1 := engine.Group("")
	submissionApi := receiverApi.New(cfg, logger)
	{
		apiv1.POST("/submit_audio", submissionApi.SubmitAudio)
		apiv1.GET("/thanks", submissionApi.Thanks)
	}
}

func requestLogger(logger commons.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start).String(),
		)
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
