// Package http exposes the focus engine over a REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/coincentrate/focusd/internal/engine"
	apperrors "github.com/coincentrate/focusd/internal/platform/errors"
)

const shutdownTimeout = 10 * time.Second

// Server wraps a Fiber app serving the focus economy API.
type Server struct {
	app    *fiber.App
	engine *engine.Service
	addr   string
}

// NewServer builds the Fiber app and registers all routes.
func NewServer(svc *engine.Service, port int) *Server {
	server := &Server{
		engine: svc,
		addr:   fmt.Sprintf(":%d", port),
	}

	server.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	server.app.Use(recover.New())
	server.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	server.app.Use(cors.New())

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.health)

	v1 := s.app.Group("/v1")

	v1.Get("/profiles/:id", s.getProfile)

	tasks := v1.Group("/tasks")
	tasks.Post("/", s.createTask)
	tasks.Get("/", s.listTasks)
	tasks.Delete("/:id", s.deleteTask)

	sessions := v1.Group("/sessions")
	sessions.Post("/", s.startSession)
	sessions.Get("/active", s.activeSession)
	sessions.Post("/active/pause", s.togglePause)
	sessions.Post("/active/quit", s.requestQuit)
	sessions.Post("/active/quit/confirm", s.confirmQuit)
	sessions.Post("/active/quit/cancel", s.cancelQuit)

	v1.Get("/analytics", s.analytics)
}

// Serve runs the HTTP listener until ctx is cancelled, then drains in-flight
// requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Printf("http: listening on %s", s.addr)
		if err := s.app.Listen(s.addr); err != nil {
			return fmt.Errorf("listen %s: %w", s.addr, err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// App exposes the underlying Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

// errorHandler translates engine error codes into HTTP statuses. Internal
// failures keep a generic message; everything else surfaces its code.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{
			Error:   "http_error",
			Message: fiberErr.Message,
		})
	}

	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal error"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   string(code),
		Message: message,
	})
}
