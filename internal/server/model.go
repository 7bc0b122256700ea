package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Signal marks the start or the end of a request.
type Signal struct {
	ID   string
	Name string
	Time time.Time
}

// NewSignal creates a start signal for the named request.
func NewSignal(name string) Signal {
	return Signal{
		ID:   uuid.New().String(),
		Name: name,
		Time: time.Now(),
	}
}

// Block pairs every action with its reaction.
type Block struct {
	mutex   sync.Mutex
	pending map[string]Signal
}

// NewBlock creates an empty block.
func NewBlock() *Block {
	return &Block{
		pending: make(map[string]Signal),
	}
}

// Action records the start of a request.
func (b *Block) Action(s Signal) {
	b.mutex.Lock()
	b.pending[s.ID] = s
	b.mutex.Unlock()
	log.Debug().
		Time("time", s.Time).
		Str("action", s.Name).
		Msg("started execution")
}

// ReAction records the end of the request started with the signal.
func (b *Block) ReAction(s Signal, code int) {
	b.mutex.Lock()
	action, ok := b.pending[s.ID]
	delete(b.pending, s.ID)
	b.mutex.Unlock()
	if !ok {
		log.Warn().Str("reaction", s.Name).Msg("reaction without action")
		return
	}
	log.Info().
		Time("time", action.Time).
		Float64("duration", time.Since(action.Time).Seconds()).
		Str("reaction", action.Name).
		Int("code", code).
		Msg("completed execution")
}

// Pending returns the number of requests in flight.
func (b *Block) Pending() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.pending)
}
