package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "studybuddy/backend/internal/errors"
	"studybuddy/backend/internal/middleware"
	"studybuddy/backend/internal/service"
	"studybuddy/backend/internal/timer"
)

type TimerHandler struct {
	study *service.StudyService
}

type durationRequest struct {
	Minutes durationText `json:"minutes"`
	Seconds durationText `json:"seconds"`
}

func NewTimerHandler(study *service.StudyService) *TimerHandler {
	return &TimerHandler{study: study}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	state, apiErr := h.study.TimerState(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": state})
}

// Start begins a countdown from the minutes and seconds in the body. With no
// body at all it starts from the duration loaded by Set.
func (h *TimerHandler) Start(c *gin.Context) {
	var req durationRequest
	present, ok := bindOptionalJSON(c, &req)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	var (
		state  *timer.Snapshot
		apiErr *apperrors.APIError
	)
	if present {
		state, apiErr = h.study.StartTimer(userID, string(req.Minutes), string(req.Seconds))
	} else {
		state, apiErr = h.study.StartPresetTimer(userID)
	}
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": state})
}

// Set loads a duration without starting it. Missing fields count as zero.
func (h *TimerHandler) Set(c *gin.Context) {
	var req durationRequest
	if _, ok := bindOptionalJSON(c, &req); !ok {
		return
	}

	state, apiErr := h.study.SetTimer(middleware.UserID(c), string(req.Minutes), string(req.Seconds))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": state})
}

func (h *TimerHandler) Pause(c *gin.Context) {
	state, apiErr := h.study.PauseTimer(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": state})
}

func (h *TimerHandler) Resume(c *gin.Context) {
	state, apiErr := h.study.ResumeTimer(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": state})
}

func (h *TimerHandler) Reset(c *gin.Context) {
	state, apiErr := h.study.ResetTimer(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": state})
}

func (h *TimerHandler) GetHistory(c *gin.Context) {
	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.study.History(c.Request.Context(), middleware.UserID(c), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Events streams every timer change, one event per tick while running.
func (h *TimerHandler) Events(c *gin.Context) {
	updates := make(chan timer.Snapshot, eventBuffer)
	initial, unsubscribe, apiErr := h.study.WatchTimer(middleware.UserID(c), func(snap timer.Snapshot) {
		offer(updates, snap)
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer unsubscribe()

	streamEvents(c, *initial, updates, func(snap timer.Snapshot) string { return string(snap.Event) })
}
