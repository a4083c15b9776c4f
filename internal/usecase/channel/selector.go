// Package channel implements the media channel carousel: a fixed list of
// channels with a current index that wraps around in both directions.
package channel

import (
	"errors"
	"fmt"
	"sync"

	"postlabor-feed/internal/domain/entity"
)

// ErrIndexOutOfRange is returned by SelectIndex for an index outside [0, Len).
var ErrIndexOutOfRange = errors.New("channel index out of range")

// TransitionState describes what the viewer should draw for a channel
// change: Static is the interstitial shown before Index is revealed.
type TransitionState struct {
	Index  int
	Static bool
}

// Selector holds the current channel index. It is safe for concurrent use;
// concurrent moves are serialized and the last one wins.
type Selector struct {
	mu       sync.Mutex
	channels []entity.MediaChannel
	current  int
}

// NewSelector builds a selector positioned on the first channel.
// The channel list is copied.
func NewSelector(channels []entity.MediaChannel) (*Selector, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: at least one channel is required", entity.ErrInvalidInput)
	}
	for i, ch := range channels {
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
	}
	return &Selector{channels: append([]entity.MediaChannel(nil), channels...)}, nil
}

// Next advances to the following channel, wrapping to the first.
func (s *Selector) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = (s.current + 1) % len(s.channels)
	return s.current
}

// Previous moves to the preceding channel, wrapping to the last.
func (s *Selector) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = (s.current - 1 + len(s.channels)) % len(s.channels)
	return s.current
}

// SelectIndex jumps to channel i. It reports false when i is already current.
func (s *Selector) SelectIndex(i int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.channels) {
		return false, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(s.channels))
	}
	if i == s.current {
		return false, nil
	}
	s.current = i
	return true, nil
}

// Current returns the current index and channel.
func (s *Selector) Current() (int, entity.MediaChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.channels[s.current]
}

// Len returns the number of channels.
func (s *Selector) Len() int {
	return len(s.channels)
}

// Channels returns a copy of the channel list.
func (s *Selector) Channels() []entity.MediaChannel {
	return append([]entity.MediaChannel(nil), s.channels...)
}

// Transition returns the first phase of a switch to index: the static
// interstitial. The viewer reveals the channel by clearing Static after
// its own delay.
func (s *Selector) Transition() TransitionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TransitionState{Index: s.current, Static: true}
}
