package middleware

import (
	"time"

	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/pkg/logger"
	"github.com/clipforge/pipeline/pkg/utils"
	"github.com/labstack/echo/v4"
)

type MiddlewareManager struct {
	cfg     *config.Config
	origins []string
	logger  logger.Logger
}

func NewMiddlewareManager(cfg *config.Config, origins []string, logger logger.Logger) *MiddlewareManager {
	return &MiddlewareManager{cfg: cfg, origins: origins, logger: logger}
}

// RequestLoggerMiddleware logs one line per request with timing.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		req := c.Request()
		res := c.Response()
		mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %d, Size: %d, Time: %s, IP: %s",
			utils.GetRequestID(c),
			req.Method,
			req.URL.Path,
			res.Status,
			res.Size,
			time.Since(start),
			utils.GetIPAddress(c),
		)
		return err
	}
}
