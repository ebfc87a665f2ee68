package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"studybuddy/backend/internal/deck"
	apperrors "studybuddy/backend/internal/errors"
	"studybuddy/backend/internal/model"
	"studybuddy/backend/internal/repository"
	"studybuddy/backend/internal/timer"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	recordTimeout       = 5 * time.Second
)

// StudyService owns one in-memory deck and timer per user. Only the timer
// history is written to the database.
type StudyService struct {
	sessions  *repository.StudySessionRepository
	seedCards []model.Flashcard
	clock     timer.Clock
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	workspaces map[string]*workspace
	closed     bool
}

type StudyOptions struct {
	SeedCards []model.Flashcard
	Clock     timer.Clock
	Logger    *slog.Logger
	Now       func() time.Time
}

type workspace struct {
	userID string
	deck   *deck.Deck
	timer  *timer.Timer

	mu            sync.Mutex
	openSessionID string
	unsubscribe   func()
}

// NewSessionView is returned when a fresh review pass begins.
type NewSessionView struct {
	Order []model.Flashcard `json:"order"`
	Deck  deck.Snapshot     `json:"deck"`
}

func NewStudyService(sessions *repository.StudySessionRepository, opts StudyOptions) *StudyService {
	if opts.Clock == nil {
		opts.Clock = timer.SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &StudyService{
		sessions:   sessions,
		seedCards:  append([]model.Flashcard(nil), opts.SeedCards...),
		clock:      opts.Clock,
		logger:     opts.Logger.With("component", "study_service"),
		now:        opts.Now,
		workspaces: make(map[string]*workspace),
	}
}

// OpenWorkspace creates the user's deck and timer ahead of first use.
func (s *StudyService) OpenWorkspace(userID string) *apperrors.APIError {
	_, apiErr := s.workspace(userID)
	return apiErr
}

func (s *StudyService) DeckState(userID string) (*deck.Snapshot, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	snap := ws.deck.Snapshot()
	return &snap, nil
}

func (s *StudyService) Cards(userID string) ([]model.Flashcard, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return ws.deck.Cards(), nil
}

func (s *StudyService) AddCard(userID, question, answer string) (*deck.Snapshot, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := ws.deck.Add(question, answer); err != nil {
		return nil, deckError(err)
	}
	snap := ws.deck.Snapshot()
	return &snap, nil
}

func (s *StudyService) CurrentCard(userID string) (*model.Flashcard, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	card, err := ws.deck.Current()
	if err != nil {
		return nil, deckError(err)
	}
	return &card, nil
}

func (s *StudyService) NextCard(userID string) (*deck.Snapshot, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	ws.deck.Next()
	snap := ws.deck.Snapshot()
	return &snap, nil
}

func (s *StudyService) ToggleAnswer(userID string) (*deck.Snapshot, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if _, err := ws.deck.ToggleAnswer(); err != nil {
		return nil, deckError(err)
	}
	snap := ws.deck.Snapshot()
	return &snap, nil
}

func (s *StudyService) NewSession(userID string) (*NewSessionView, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	order := ws.deck.NewSession()
	return &NewSessionView{Order: order, Deck: ws.deck.Snapshot()}, nil
}

func (s *StudyService) ShuffledCards(userID string) ([]model.Flashcard, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return ws.deck.ShuffledView(), nil
}

func (s *StudyService) TimerState(userID string) (*timer.Snapshot, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	snap := ws.timer.Snapshot()
	return &snap, nil
}

// StartTimer starts a countdown from raw minutes and seconds text. Text that
// is not an integer counts as zero.
func (s *StudyService) StartTimer(userID, minutes, seconds string) (*timer.Snapshot, *apperrors.APIError) {
	return s.applyTimer(userID, func(t *timer.Timer) error { return t.StartText(minutes, seconds) })
}

// SetTimer loads a duration for a later StartPresetTimer.
func (s *StudyService) SetTimer(userID, minutes, seconds string) (*timer.Snapshot, *apperrors.APIError) {
	return s.applyTimer(userID, func(t *timer.Timer) error { return t.SetTimeText(minutes, seconds) })
}

func (s *StudyService) StartPresetTimer(userID string) (*timer.Snapshot, *apperrors.APIError) {
	return s.applyTimer(userID, (*timer.Timer).StartPreset)
}

func (s *StudyService) PauseTimer(userID string) (*timer.Snapshot, *apperrors.APIError) {
	return s.applyTimer(userID, (*timer.Timer).Pause)
}

func (s *StudyService) ResumeTimer(userID string) (*timer.Snapshot, *apperrors.APIError) {
	return s.applyTimer(userID, (*timer.Timer).Resume)
}

func (s *StudyService) ResetTimer(userID string) (*timer.Snapshot, *apperrors.APIError) {
	return s.applyTimer(userID, (*timer.Timer).Reset)
}

// WatchTimer registers fn for every timer change of userID and returns the
// state at subscription time. fn runs on the timer's goroutine and must not
// block.
func (s *StudyService) WatchTimer(userID string, fn func(timer.Snapshot)) (*timer.Snapshot, func(), *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	unsubscribe := ws.timer.Subscribe(fn)
	snap := ws.timer.Snapshot()
	return &snap, unsubscribe, nil
}

// WatchDeck is WatchTimer for deck changes.
func (s *StudyService) WatchDeck(userID string, fn func(deck.Snapshot)) (*deck.Snapshot, func(), *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	unsubscribe := ws.deck.Subscribe(fn)
	snap := ws.deck.Snapshot()
	return &snap, unsubscribe, nil
}

func (s *StudyService) History(ctx context.Context, userID string, limit int) ([]model.StudySession, *apperrors.APIError) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	sessions, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error("list study sessions", "error", err, "user_id", userID)
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

// Close stops every timer and closes any session that was still running.
// Later calls return a gone error.
func (s *StudyService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	workspaces := make([]*workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		workspaces = append(workspaces, ws)
	}
	s.mu.Unlock()

	for _, ws := range workspaces {
		_ = ws.timer.Close()
		ws.unsubscribe()
		s.closeOpenSession(ws, model.SessionStatusCancelled, ws.timer.Snapshot().ElapsedMillis)
	}
	s.logger.Info("study service closed", "workspaces", len(workspaces))
}

func (s *StudyService) applyTimer(userID string, op func(*timer.Timer) error) (*timer.Snapshot, *apperrors.APIError) {
	ws, apiErr := s.workspace(userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := op(ws.timer); err != nil {
		return nil, timerError(err)
	}
	snap := ws.timer.Snapshot()
	return &snap, nil
}

func (s *StudyService) workspace(userID string) (*workspace, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, apperrors.Gone("service_closed", "study service is shutting down")
	}
	if ws, ok := s.workspaces[userID]; ok {
		return ws, nil
	}

	logger := s.logger.With("user_id", userID)
	ws := &workspace{
		userID: userID,
		deck:   deck.New(deck.WithCards(s.seedCards), deck.WithLogger(logger)),
		timer:  timer.New(timer.WithClock(s.clock), timer.WithLogger(logger)),
	}
	ws.unsubscribe = ws.timer.Subscribe(func(snap timer.Snapshot) {
		s.recordTimerEvent(ws, snap)
	})
	s.workspaces[userID] = ws
	logger.Debug("workspace created", "cards", ws.deck.Len())
	return ws, nil
}

func (s *StudyService) recordTimerEvent(ws *workspace, snap timer.Snapshot) {
	switch snap.Event {
	case timer.EventStarted:
		s.closeOpenSession(ws, model.SessionStatusCancelled, 0)
		s.openSession(ws, snap)
	case timer.EventFinished:
		s.closeOpenSession(ws, model.SessionStatusCompleted, snap.ElapsedMillis)
	case timer.EventReset:
		s.closeOpenSession(ws, model.SessionStatusCancelled, snap.ElapsedMillis)
	}
}

func (s *StudyService) openSession(ws *workspace, snap timer.Snapshot) {
	now := s.now().UTC()
	session := model.StudySession{
		ID:                     uuid.NewString(),
		UserID:                 ws.userID,
		PlannedDurationSeconds: int(snap.PlannedMillis / 1000),
		StartedAt:              now,
		Status:                 model.SessionStatusRunning,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := s.sessions.Insert(ctx, &session); err != nil {
		s.logger.Error("record study session start", "error", err, "user_id", ws.userID)
		return
	}

	ws.mu.Lock()
	ws.openSessionID = session.ID
	ws.mu.Unlock()
}

func (s *StudyService) closeOpenSession(ws *workspace, status string, elapsedMillis int64) {
	ws.mu.Lock()
	sessionID := ws.openSessionID
	ws.openSessionID = ""
	ws.mu.Unlock()
	if sessionID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	err := s.sessions.Finish(ctx, sessionID, status, int(elapsedMillis/1000), s.now().UTC())
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("record study session end", "error", err, "session_id", sessionID, "status", status)
	}
}

func deckError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, deck.ErrInvalidInput):
		return apperrors.BadRequest("invalid_card", err.Error())
	case errors.Is(err, deck.ErrEmptyDeck):
		return apperrors.NotFound("deck_empty", "no flashcards to review, add some first")
	default:
		return apperrors.Internal("")
	}
}

func timerError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, timer.ErrInvalidDuration):
		return apperrors.BadRequest("invalid_duration", "timer duration must be greater than zero")
	case errors.Is(err, timer.ErrClosed):
		return apperrors.Gone("timer_closed", "timer is no longer available")
	default:
		return apperrors.Internal("")
	}
}
