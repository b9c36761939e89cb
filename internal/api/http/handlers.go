package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coincentrate/focusd/internal/domain"
	"github.com/coincentrate/focusd/internal/engine"
)

// getProfile handles GET /v1/profiles/:id.
func (s *Server) getProfile(c *fiber.Ctx) error {
	view, err := s.engine.Profile(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(view))
}

// createTask handles POST /v1/tasks.
func (s *Server) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	task, err := s.engine.CreateTask(c.Context(), domain.CreateTaskInput{
		OwnerID:         req.OwnerID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        domain.Category(req.Category),
		DurationMinutes: req.DurationMinutes,
		CoinBid:         req.CoinBid,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(taskResponse(task))
}

// listTasks handles GET /v1/tasks?owner=.
func (s *Server) listTasks(c *fiber.Ctx) error {
	ownerID := c.Query("owner")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	tasks, err := s.engine.ListTasks(c.Context(), ownerID)
	if err != nil {
		return err
	}
	response := ListTasksResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, task := range tasks {
		response.Tasks = append(response.Tasks, taskResponse(task))
	}
	return c.JSON(response)
}

// deleteTask handles DELETE /v1/tasks/:id.
func (s *Server) deleteTask(c *fiber.Ctx) error {
	if err := s.engine.DeleteTask(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// startSession handles POST /v1/sessions.
func (s *Server) startSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OwnerID == "" || req.TaskID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner_id and task_id are required")
	}

	view, err := s.engine.StartSession(c.Context(), req.OwnerID, req.TaskID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sessionResponse(view))
}

// activeSession handles GET /v1/sessions/active?owner=.
func (s *Server) activeSession(c *fiber.Ctx) error {
	ownerID := c.Query("owner")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	view, err := s.engine.ActiveSession(c.Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(view))
}

// togglePause handles POST /v1/sessions/active/pause.
func (s *Server) togglePause(c *fiber.Ctx) error {
	ownerID := c.Query("owner")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	view, err := s.engine.TogglePause(c.Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(view))
}

// requestQuit handles POST /v1/sessions/active/quit.
func (s *Server) requestQuit(c *fiber.Ctx) error {
	ownerID := c.Query("owner")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	view, err := s.engine.RequestQuit(c.Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(view))
}

// confirmQuit handles POST /v1/sessions/active/quit/confirm. The forfeit is
// settled before the response is sent.
func (s *Server) confirmQuit(c *fiber.Ctx) error {
	ownerID := c.Query("owner")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	if err := s.engine.ConfirmQuit(c.Context(), ownerID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// cancelQuit handles POST /v1/sessions/active/quit/cancel.
func (s *Server) cancelQuit(c *fiber.Ctx) error {
	ownerID := c.Query("owner")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	view, err := s.engine.CancelQuit(c.Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(view))
}

// analytics handles GET /v1/analytics?owner=.
func (s *Server) analytics(c *fiber.Ctx) error {
	ownerID := c.Query("owner")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner query parameter is required")
	}

	summary, err := s.engine.Analytics(c.Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(AnalyticsResponse{
		TotalSessions:   summary.TotalSessions,
		TotalMinutes:    summary.TotalMinutes,
		SuccessRate:     summary.SuccessRate,
		ThisWeekMinutes: summary.ThisWeekMinutes,
	})
}

func profileResponse(view engine.ProfileView) ProfileResponse {
	profile := view.Profile
	return ProfileResponse{
		ID:            profile.ID,
		Username:      profile.Username,
		DailyCoins:    profile.DailyCoins,
		TotalXP:       profile.TotalXP,
		Level:         profile.Level,
		LevelTitle:    view.LevelTitle,
		CurrentStreak: profile.CurrentStreak,
		BestStreak:    profile.BestStreak,
		CreatedAt:     profile.CreatedAt,
		UpdatedAt:     profile.UpdatedAt,
	}
}

func taskResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:              task.ID,
		OwnerID:         task.OwnerID,
		Title:           task.Title,
		Description:     task.Description,
		Category:        string(task.Category),
		DurationMinutes: task.DurationMinutes,
		CoinBid:         task.CoinBid,
		Status:          string(task.Status),
		CreatedAt:       task.CreatedAt,
		CompletedAt:     task.CompletedAt,
	}
}

func sessionResponse(view engine.SessionView) SessionResponse {
	return SessionResponse{
		TaskID:           view.TaskID,
		OwnerID:          view.OwnerID,
		State:            view.State,
		ConfirmingQuit:   view.ConfirmingQuit,
		RemainingSeconds: view.RemainingSeconds,
		TotalSeconds:     view.TotalSeconds,
		Progress:         view.Progress,
		StartedAt:        view.StartedAt,
	}
}
