// Package httpapi serves the gateway as a JSON API on echo.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/gurkanbulca/taskboard/internal/dto"
	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/metrics"
	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/internal/service"
)

// New builds an echo instance with every route registered.
func New(gw *service.Gateway) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = errorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(middleware.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(observe)

	Register(e, gw)
	return e
}

// Register wires the API routes onto e.
func Register(e *echo.Echo, gw *service.Gateway) {
	h := &handlers{gw: gw}

	api := e.Group("/api")
	api.GET("/tasks", h.listTasks)
	api.POST("/tasks", h.createTask)
	api.POST("/tasks/import", h.importTasks)
	api.GET("/tasks/:id", h.getTask)
	api.PATCH("/tasks/:id", h.updateTask)
	api.DELETE("/tasks/:id", h.deleteTask)
	api.POST("/tasks/:id/toggle", h.toggleTask)

	api.GET("/categories", h.listCategories)
	api.POST("/categories", h.createCategory)
	api.GET("/categories/:id", h.getCategory)
	api.PATCH("/categories/:id", h.updateCategory)
	api.DELETE("/categories/:id", h.deleteCategory)

	api.GET("/board", h.board)

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// observe logs and counts every API call.
func observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if c.Path() == "/metrics" || c.Path() == "/healthz" {
			return err
		}

		metrics.Observe("http", c.Request().Method+" "+c.Path(), start, err)
		entry := log.WithFields(log.Fields{
			"method":     c.Request().Method,
			"path":       c.Path(),
			"duration":   time.Since(start),
			"request_id": middleware.GetRequestIDFromContext(c.Request().Context()),
		})
		if err != nil {
			entry.WithError(err).Warn("request failed")
		} else {
			entry.Debug("request completed")
		}
		return err
	}
}

func statusOf(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	case errs.IsBackend(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = c.JSON(he.Code, dto.ErrorBody{Error: msg})
		return
	}

	code := statusOf(err)
	body := dto.ErrorBody{Error: err.Error(), Fields: dto.FieldErrors(err)}
	if code == http.StatusInternalServerError {
		log.WithError(err).Error("unhandled API error")
	}
	_ = c.JSON(code, body)
}

type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return errs.Invalid("body", "malformed JSON")
	}
	return nil
}
