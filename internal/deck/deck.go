// Package deck implements an in-memory flashcard deck with a shuffled review
// order and a cycling active position.
package deck

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"studybuddy/backend/internal/events"
	"studybuddy/backend/internal/model"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyDeck    = errors.New("deck is empty")
)

// Snapshot is a read-only view of the deck at one point in time.
type Snapshot struct {
	Size          int              `json:"size"`
	Index         int              `json:"index"`
	Current       *model.Flashcard `json:"current,omitempty"`
	AnswerVisible bool             `json:"answerVisible"`
	Version       int              `json:"version"`
}

// Deck keeps cards in insertion order and a separate presentation order that
// is reshuffled on every Add and NewSession. All methods are safe for
// concurrent use.
type Deck struct {
	mu            sync.Mutex
	cards         []model.Flashcard
	order         []model.Flashcard
	index         int
	answerVisible bool
	version       int
	rng           *rand.Rand

	// publishMu keeps notifications in version order.
	publishMu sync.Mutex
	emitter   *events.Emitter[Snapshot]
}

type Option func(*Deck)

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(d *Deck) { d.rng = rng }
}

// WithLogger sets the logger used by the change emitter.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deck) { d.emitter = events.NewEmitter[Snapshot](logger) }
}

// WithCards seeds the deck. Blank cards are skipped.
func WithCards(cards []model.Flashcard) Option {
	return func(d *Deck) {
		for _, card := range cards {
			if validate(card.Question, card.Answer) == nil {
				d.cards = append(d.cards, card)
			}
		}
	}
}

func New(opts ...Option) *Deck {
	d := &Deck{}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if d.emitter == nil {
		d.emitter = events.NewEmitter[Snapshot](nil)
	}
	d.order = d.shuffledLocked()
	return d
}

// Add appends a card and starts a new review pass over a reshuffled order.
func (d *Deck) Add(question, answer string) error {
	if err := validate(question, answer); err != nil {
		return err
	}

	d.mu.Lock()
	d.cards = append(d.cards, model.Flashcard{Question: question, Answer: answer})
	d.restartLocked()
	d.publishLocked()
	return nil
}

// ShuffledView returns a fresh uniformly random permutation of every card.
// Neither the stored nor the presentation order changes.
func (d *Deck) ShuffledView() []model.Flashcard {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shuffledLocked()
}

// NewSession reshuffles the presentation order and rewinds to its first card.
func (d *Deck) NewSession() []model.Flashcard {
	d.mu.Lock()
	d.restartLocked()
	order := append([]model.Flashcard(nil), d.order...)
	d.publishLocked()
	return order
}

// Next moves to the following card, wrapping after the last one. It does
// nothing on an empty deck.
func (d *Deck) Next() {
	d.mu.Lock()
	if len(d.order) == 0 {
		d.mu.Unlock()
		return
	}
	d.index = (d.index + 1) % len(d.order)
	d.answerVisible = false
	d.version++
	d.publishLocked()
}

func (d *Deck) Current() (model.Flashcard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.order) == 0 {
		return model.Flashcard{}, ErrEmptyDeck
	}
	return d.order[d.index], nil
}

// ToggleAnswer flips whether the current card's answer is shown and returns
// the new visibility.
func (d *Deck) ToggleAnswer() (bool, error) {
	d.mu.Lock()
	if len(d.order) == 0 {
		d.mu.Unlock()
		return false, ErrEmptyDeck
	}
	d.answerVisible = !d.answerVisible
	d.version++
	visible := d.answerVisible
	d.publishLocked()
	return visible, nil
}

// Cards returns every card in insertion order.
func (d *Deck) Cards() []model.Flashcard {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Flashcard(nil), d.cards...)
}

func (d *Deck) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

func (d *Deck) Index() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

func (d *Deck) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Subscribe registers fn for a snapshot after every change. Handlers run on
// the goroutine that made the change.
func (d *Deck) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return d.emitter.Subscribe(fn)
}

// publishLocked releases d.mu and notifies subscribers of the state it held.
// publishMu is taken before d.mu is released, so a later change cannot
// overtake this notification.
func (d *Deck) publishLocked() {
	snap := d.snapshotLocked()
	d.publishMu.Lock()
	d.mu.Unlock()
	defer d.publishMu.Unlock()

	d.emitter.Publish(snap)
}

func (d *Deck) restartLocked() {
	d.order = d.shuffledLocked()
	d.index = 0
	d.answerVisible = false
	d.version++
}

func (d *Deck) shuffledLocked() []model.Flashcard {
	out := append([]model.Flashcard(nil), d.cards...)
	d.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func (d *Deck) snapshotLocked() Snapshot {
	snap := Snapshot{
		Size:          len(d.order),
		Index:         d.index,
		AnswerVisible: d.answerVisible,
		Version:       d.version,
	}
	if len(d.order) > 0 {
		card := d.order[d.index]
		snap.Current = &card
	}
	return snap
}

func validate(question, answer string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("%w: answer is required", ErrInvalidInput)
	}
	return nil
}
