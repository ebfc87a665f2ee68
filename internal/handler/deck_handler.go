package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studybuddy/backend/internal/deck"
	"studybuddy/backend/internal/middleware"
	"studybuddy/backend/internal/service"
)

type DeckHandler struct {
	study *service.StudyService
}

type addCardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func NewDeckHandler(study *service.StudyService) *DeckHandler {
	return &DeckHandler{study: study}
}

func (h *DeckHandler) GetState(c *gin.Context) {
	state, apiErr := h.study.DeckState(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": state})
}

func (h *DeckHandler) ListCards(c *gin.Context) {
	cards, apiErr := h.study.Cards(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h *DeckHandler) AddCard(c *gin.Context) {
	var req addCardRequest
	if !bindJSON(c, &req) {
		return
	}

	state, apiErr := h.study.AddCard(middleware.UserID(c), req.Question, req.Answer)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deck": state})
}

func (h *DeckHandler) Current(c *gin.Context) {
	card, apiErr := h.study.CurrentCard(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

func (h *DeckHandler) Next(c *gin.Context) {
	state, apiErr := h.study.NextCard(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": state})
}

func (h *DeckHandler) ToggleAnswer(c *gin.Context) {
	state, apiErr := h.study.ToggleAnswer(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": state})
}

func (h *DeckHandler) NewSession(c *gin.Context) {
	view, apiErr := h.study.NewSession(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DeckHandler) Shuffled(c *gin.Context) {
	cards, apiErr := h.study.ShuffledCards(middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// Events streams deck changes as server-sent events until the client goes away.
func (h *DeckHandler) Events(c *gin.Context) {
	updates := make(chan deck.Snapshot, eventBuffer)
	initial, unsubscribe, apiErr := h.study.WatchDeck(middleware.UserID(c), func(snap deck.Snapshot) {
		offer(updates, snap)
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer unsubscribe()

	streamEvents(c, *initial, updates, func(deck.Snapshot) string { return "deck" })
}
