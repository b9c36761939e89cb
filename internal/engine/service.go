package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/coincentrate/focusd/internal/domain"
	"github.com/coincentrate/focusd/internal/economy"
	apperrors "github.com/coincentrate/focusd/internal/platform/errors"
	"github.com/coincentrate/focusd/internal/platform/id"
	"github.com/coincentrate/focusd/internal/progression"
	"github.com/coincentrate/focusd/internal/session"
	"github.com/coincentrate/focusd/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Service coordinates tasks, live sessions, and settlement on top of the
// storage facade.
type Service struct {
	store        storage.Store
	clock        func() time.Time
	newID        func() (string, error)
	tickInterval time.Duration

	mu        sync.Mutex
	runs      map[string]*activeRun
	onSettled func(ownerID string, success bool, coinsDelta, xpDelta int)
}

// activeRun tracks one in-flight focus session. The run is transient: nothing
// about it is persisted until settlement.
type activeRun struct {
	ownerID   string
	task      domain.Task
	startedAt time.Time
	runner    *session.Runner

	mu        sync.Mutex
	settleErr error
}

func (r *activeRun) setSettleErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settleErr = err
}

func (r *activeRun) lastSettleErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settleErr
}

// NewService creates a Service with default dependencies.
func NewService(store storage.Store) *Service {
	return &Service{
		store:        store,
		clock:        time.Now,
		newID:        id.NewID,
		tickInterval: session.DefaultTickInterval,
		runs:         make(map[string]*activeRun),
	}
}

// OnSettled registers a callback fired after each settlement is durably
// applied, with the signed coin and XP deltas. Set it before starting
// sessions; the callback runs on whichever goroutine settles the run.
func (s *Service) OnSettled(fn func(ownerID string, success bool, coinsDelta, xpDelta int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSettled = fn
}

// ProfileView is a profile with its derived progression title.
type ProfileView struct {
	Profile    domain.Profile
	LevelTitle string
}

// Profile loads one profile with its level title.
func (s *Service) Profile(ctx context.Context, profileID string) (ProfileView, error) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return ProfileView{}, mapStorageError("load profile", err)
	}
	return ProfileView{
		Profile:    profile,
		LevelTitle: progression.LevelTitle(profile.Level),
	}, nil
}

// CreateTask validates the input against the owner's balance, then reserves
// the bid and persists the task atomically.
func (s *Service) CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error) {
	profile, err := s.store.GetProfile(ctx, input.OwnerID)
	if err != nil {
		return domain.Task{}, mapStorageError("load task owner", err)
	}

	task, err := domain.CreateTask(input, profile, s.clock, s.newID)
	if err != nil {
		return domain.Task{}, mapTaskInputError(err)
	}

	if err := s.store.CreateTaskWithReservation(ctx, task); err != nil {
		if errors.Is(err, storage.ErrInsufficientCoins) {
			return domain.Task{}, apperrors.Wrap(apperrors.CodeTaskBidExceedsBalance, "coin bid exceeds available daily coins", err)
		}
		return domain.Task{}, mapStorageError("reserve task bid", err)
	}
	return task, nil
}

// ListTasks lists the owner's tasks, highest stakes first.
func (s *Service) ListTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	tasks, err := s.store.ListTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapStorageError("list tasks", err)
	}
	return tasks, nil
}

// DeleteTask removes a task that has not been played yet. The reserved bid is
// not refunded; coins only flow back through settlement.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return mapStorageError("load task", err)
	}
	if task.Status != domain.TaskStatusPending {
		return apperrors.New(apperrors.CodeTaskNotDeletable, "only pending tasks can be deleted")
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return mapStorageError("delete task", err)
	}
	return nil
}

// SessionView is a point-in-time view of one live run.
type SessionView struct {
	TaskID           string
	OwnerID          string
	State            string
	ConfirmingQuit   bool
	RemainingSeconds int
	TotalSeconds     int
	Progress         float64
	StartedAt        time.Time
}

// StartSession begins a focus session against a pending task. Only one
// session may run per owner; the run itself is held in memory and persisted
// only through settlement.
func (s *Service) StartSession(ctx context.Context, ownerID, taskID string) (SessionView, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return SessionView{}, mapStorageError("load task", err)
	}
	if task.OwnerID != ownerID {
		return SessionView{}, apperrors.New(apperrors.CodeNotFound, "task not found for owner")
	}
	if task.Status != domain.TaskStatusPending {
		return SessionView{}, apperrors.New(apperrors.CodeTaskNotPending, "task already has a settled or running session")
	}

	s.mu.Lock()
	if _, exists := s.runs[ownerID]; exists {
		s.mu.Unlock()
		return SessionView{}, apperrors.New(apperrors.CodeSessionAlreadyActive, "a focus session is already active")
	}

	run := &activeRun{
		ownerID:   ownerID,
		task:      task,
		startedAt: s.clock().UTC(),
	}
	run.runner = session.NewRunner(session.NewMachine(), session.Events{
		OnTerminal: func(event session.TerminalEvent) {
			run.setSettleErr(s.finishRun(run, event))
		},
	}, s.tickInterval)

	if err := run.runner.Start(context.Background(), task.DurationMinutes); err != nil {
		s.mu.Unlock()
		return SessionView{}, mapSessionError(err)
	}
	s.runs[ownerID] = run
	s.mu.Unlock()

	return s.viewOf(run), nil
}

// ActiveSession returns the owner's live run, if any.
func (s *Service) ActiveSession(ctx context.Context, ownerID string) (SessionView, error) {
	if err := ctx.Err(); err != nil {
		return SessionView{}, err
	}
	run, err := s.activeRun(ownerID)
	if err != nil {
		return SessionView{}, err
	}
	return s.viewOf(run), nil
}

// TogglePause flips the owner's run between running and paused.
func (s *Service) TogglePause(ctx context.Context, ownerID string) (SessionView, error) {
	if err := ctx.Err(); err != nil {
		return SessionView{}, err
	}
	run, err := s.activeRun(ownerID)
	if err != nil {
		return SessionView{}, err
	}
	if err := run.runner.TogglePause(); err != nil {
		return SessionView{}, mapSessionError(err)
	}
	return s.viewOf(run), nil
}

// RequestQuit freezes the owner's run pending abandon confirmation.
func (s *Service) RequestQuit(ctx context.Context, ownerID string) (SessionView, error) {
	if err := ctx.Err(); err != nil {
		return SessionView{}, err
	}
	run, err := s.activeRun(ownerID)
	if err != nil {
		return SessionView{}, err
	}
	if err := run.runner.RequestQuit(); err != nil {
		return SessionView{}, mapSessionError(err)
	}
	return s.viewOf(run), nil
}

// CancelQuit resumes the owner's run from the confirmation prompt.
func (s *Service) CancelQuit(ctx context.Context, ownerID string) (SessionView, error) {
	if err := ctx.Err(); err != nil {
		return SessionView{}, err
	}
	run, err := s.activeRun(ownerID)
	if err != nil {
		return SessionView{}, err
	}
	if err := run.runner.CancelQuit(); err != nil {
		return SessionView{}, mapSessionError(err)
	}
	return s.viewOf(run), nil
}

// ConfirmQuit abandons the owner's run and settles the forfeit synchronously
// so persistence failures reach the caller.
func (s *Service) ConfirmQuit(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	run, err := s.activeRun(ownerID)
	if err != nil {
		return err
	}
	if err := run.runner.ConfirmQuit(); err != nil {
		return mapSessionError(err)
	}
	return run.lastSettleErr()
}

// Analytics summarizes the owner's session history.
func (s *Service) Analytics(ctx context.Context, ownerID string) (progression.Summary, error) {
	sessions, err := s.store.ListSessionsByOwner(ctx, ownerID)
	if err != nil {
		return progression.Summary{}, mapStorageError("list focus sessions", err)
	}
	return progression.Summarize(sessions, s.clock().UTC()), nil
}

// Close stops all live runners without settling them. It is used on process
// shutdown; interrupted runs simply never settle.
func (s *Service) Close() {
	s.mu.Lock()
	runs := make([]*activeRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.runs = make(map[string]*activeRun)
	s.mu.Unlock()

	for _, run := range runs {
		run.runner.Stop()
		<-run.runner.Done()
	}
}

func (s *Service) activeRun(ownerID string) (*activeRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[ownerID]
	if !ok {
		return nil, apperrors.New(apperrors.CodeSessionNotActive, "no active focus session")
	}
	return run, nil
}

func (s *Service) viewOf(run *activeRun) SessionView {
	snapshot := run.runner.Snapshot()
	return SessionView{
		TaskID:           run.task.ID,
		OwnerID:          run.ownerID,
		State:            snapshot.State.String(),
		ConfirmingQuit:   snapshot.ConfirmingQuit,
		RemainingSeconds: snapshot.RemainingSeconds,
		TotalSeconds:     snapshot.TotalSeconds,
		Progress:         snapshot.Progress,
		StartedAt:        run.startedAt,
	}
}

// finishRun settles one terminal session event. It runs on the runner
// goroutine for countdown completion and on the caller goroutine for a
// confirmed quit. The run is removed from the active set either way.
func (s *Service) finishRun(run *activeRun, event session.TerminalEvent) error {
	s.mu.Lock()
	if current, ok := s.runs[run.ownerID]; ok && current == run {
		delete(s.runs, run.ownerID)
	}
	s.mu.Unlock()

	if err := s.settle(context.Background(), run, event.Success); err != nil {
		log.Printf("engine: settle session for task %s: %v", run.task.ID, err)
		return err
	}
	return nil
}

// settle computes and persists the economic outcome of one run.
func (s *Service) settle(ctx context.Context, run *activeRun, success bool) error {
	ctx, span := otel.Tracer("focusd/engine").Start(ctx, "engine.settle")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.id", run.task.ID),
		attribute.Bool("session.success", success),
	)

	profile, err := s.store.GetProfile(ctx, run.ownerID)
	if err != nil {
		return mapStorageError("load profile for settlement", err)
	}

	completedAt := s.clock().UTC()
	result, err := economy.Settle(run.task, profile, success, run.startedAt, completedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeSettlementTaskNotSettleable, "settle session", err)
	}

	sessionID, err := s.newID()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "generate session id", err)
	}
	result.Session.ID = sessionID

	write := storage.SettlementWrite{
		Profile:     result.Profile,
		TaskID:      run.task.ID,
		TaskStatus:  result.TaskStatus,
		CompletedAt: completedAt,
		Session:     result.Session,
	}
	if err := s.store.ApplySettlement(ctx, write); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperrors.Wrap(apperrors.CodeSettlementAlreadyApplied, "settlement already applied", err)
		}
		return mapStorageError("apply settlement", err)
	}

	s.mu.Lock()
	notify := s.onSettled
	s.mu.Unlock()
	if notify != nil {
		notify(run.ownerID, success, result.CoinsDelta, result.XPDelta)
	}
	return nil
}

func mapTaskInputError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyOwnerID), errors.Is(err, domain.ErrEmptyTitle):
		return apperrors.Wrap(apperrors.CodeTaskTitleEmpty, err.Error(), err)
	case errors.Is(err, domain.ErrInvalidCategory):
		return apperrors.Wrap(apperrors.CodeTaskInvalidCategory, err.Error(), err)
	case errors.Is(err, domain.ErrDurationOutOfRange):
		return apperrors.Wrap(apperrors.CodeTaskInvalidDuration, err.Error(), err)
	case errors.Is(err, domain.ErrBidOutOfRange):
		return apperrors.Wrap(apperrors.CodeTaskInvalidBid, err.Error(), err)
	case errors.Is(err, domain.ErrBidExceedsBalance):
		return apperrors.Wrap(apperrors.CodeTaskBidExceedsBalance, err.Error(), err)
	default:
		return apperrors.Wrap(apperrors.CodeInternal, "create task", err)
	}
}

func mapSessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotStarted):
		return apperrors.Wrap(apperrors.CodeSessionNotRunning, err.Error(), err)
	case errors.Is(err, session.ErrTerminal):
		return apperrors.Wrap(apperrors.CodeSessionTerminal, err.Error(), err)
	case errors.Is(err, session.ErrNotConfirmingQuit):
		return apperrors.Wrap(apperrors.CodeSessionNotConfirming, err.Error(), err)
	case errors.Is(err, session.ErrAlreadyStarted):
		return apperrors.Wrap(apperrors.CodeSessionAlreadyActive, err.Error(), err)
	default:
		return apperrors.Wrap(apperrors.CodeInternal, "session operation", err)
	}
}

func mapStorageError(operation string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("%s: not found", operation), err)
	case errors.Is(err, storage.ErrConflict):
		return apperrors.Wrap(apperrors.CodeConflict, fmt.Sprintf("%s: conflict", operation), err)
	default:
		return apperrors.Wrap(apperrors.CodeInternal, operation, err)
	}
}
