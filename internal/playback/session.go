// Package playback holds the state of one viewer watching a presentation:
// which slide is showing, whether autoplay is running and whether the
// screen is fullscreen.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/types"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
	StateClosed  State = "closed"
)

// CountdownTick is the resolution of the time-remaining display.
const CountdownTick = 100 * time.Millisecond

const (
	MessageNotFound = "Presentation not found. Please check the screen code."
	MessageExpired  = "This presentation has expired. Please upload a new one."
	MessageFailed   = "Failed to load presentation."
)

var (
	ErrNotReady   = errors.New("playback session is not ready")
	ErrOutOfRange = errors.New("slide index out of range")
)

type Resolver interface {
	Resolve(ctx context.Context, code string) (*types.Presentation, error)
}

// Snapshot is a copy of the session state safe to hand to other goroutines.
// It names the current slide but does not carry its image; viewers fetch the
// images once with the presentation.
type Snapshot struct {
	State       State  `json:"state"`
	ScreenCode  string `json:"screen_code"`
	Title       string `json:"title,omitempty"`
	Index       int    `json:"index"`
	TotalSlides int    `json:"total_slides"`
	Playing     bool   `json:"playing"`
	Fullscreen  bool   `json:"fullscreen"`
	IntervalMS  int    `json:"interval_ms"`
	RemainingMS int    `json:"remaining_ms"`
	SlideID     int    `json:"slide_id,omitempty"`
	SlideTitle  string `json:"slide_title,omitempty"`
	Error       string `json:"error,omitempty"`
}

type Session struct {
	mu sync.Mutex

	code      string
	resolver  Resolver
	scheduler Scheduler
	onChange  func(Snapshot)

	state        State
	errMsg       string
	presentation *types.PresentationView
	index        int
	playing      bool
	fullscreen   bool
	interval     time.Duration
	remaining    time.Duration

	// generation invalidates callbacks from timers that were already
	// cancelled but raced with the cancel.
	generation      uint64
	cancelAutoplay  func()
	cancelCountdown func()
}

type Option func(*Session)

func WithScheduler(s Scheduler) Option {
	return func(sess *Session) { sess.scheduler = s }
}

// OnChange registers a callback invoked with a fresh snapshot after every
// state change. It is called without the session lock held.
func OnChange(fn func(Snapshot)) Option {
	return func(sess *Session) { sess.onChange = fn }
}

func NewSession(code string, resolver Resolver, opts ...Option) *Session {
	s := &Session{
		code:      code,
		resolver:  resolver,
		scheduler: TickerScheduler{},
		state:     StateLoading,
		interval:  time.Duration(types.DefaultSlideInterval) * time.Millisecond,
	}
	s.remaining = s.interval
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load resolves the screen code. It moves the session to Ready at the first
// slide, paused and windowed, or to Error with a viewer-facing message.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	p, err := s.resolver.Resolve(ctx, s.code)

	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.state = StateError
		s.errMsg = errorMessage(err)
	} else {
		view := p.View()
		s.presentation = view
		s.code = view.ScreenCode
		s.state = StateReady
		s.index = 0
		s.playing = false
		s.fullscreen = false
		s.interval = time.Duration(view.SlideInterval) * time.Millisecond
		s.resetTimersLocked()
	}
	s.mu.Unlock()

	s.notify()
	if err != nil {
		return fmt.Errorf("load %s: %w", s.code, err)
	}
	return nil
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, presentations.ErrNotFound):
		return MessageNotFound
	case errors.Is(err, presentations.ErrExpired):
		return MessageExpired
	default:
		return MessageFailed
	}
}

func (s *Session) Next() {
	s.update(func() bool { return s.stepLocked(1) })
}

func (s *Session) Previous() {
	s.update(func() bool { return s.stepLocked(-1) })
}

// GoTo jumps to a 0-based slide index.
func (s *Session) GoTo(index int) error {
	var err error
	s.update(func() bool {
		if index < 0 || index >= s.totalLocked() {
			err = ErrOutOfRange
			return false
		}
		if index == s.index {
			return false
		}
		s.index = index
		s.resetTimersLocked()
		return true
	})
	return err
}

func (s *Session) TogglePlay() {
	s.update(func() bool {
		s.playing = !s.playing
		s.resetTimersLocked()
		return true
	})
}

func (s *Session) Restart() {
	s.update(func() bool {
		s.index = 0
		s.playing = false
		s.resetTimersLocked()
		return true
	})
}

func (s *Session) ToggleFullscreen() {
	s.update(func() bool {
		s.fullscreen = !s.fullscreen
		return true
	})
}

func (s *Session) ExitFullscreen() {
	s.update(func() bool {
		if !s.fullscreen {
			return false
		}
		s.fullscreen = false
		return true
	})
}

// HandleKey applies a keyboard binding and reports whether key was bound.
func (s *Session) HandleKey(key string) bool {
	switch key {
	case "ArrowRight", " ":
		s.Next()
	case "ArrowLeft":
		s.Previous()
	case "p", "P":
		s.TogglePlay()
	case "f", "F":
		s.ToggleFullscreen()
	case "r", "R":
		s.Restart()
	case "Escape":
		s.ExitFullscreen()
	default:
		return false
	}
	return true
}

// Close stops all timers. The session ignores every operation afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimersLocked()
	s.generation++
	s.state = StateClosed
	s.playing = false
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) update(fn func() bool) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return
	}
	changed := fn()
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Session) stepLocked(delta int) bool {
	next := s.index + delta
	if next < 0 || next >= s.totalLocked() {
		return false
	}
	s.index = next
	s.resetTimersLocked()
	return true
}

func (s *Session) totalLocked() int {
	if s.presentation == nil {
		return 0
	}
	return len(s.presentation.Slides)
}

// resetTimersLocked restarts the countdown at the full interval and, while
// playing, schedules fresh autoplay and countdown timers.
func (s *Session) resetTimersLocked() {
	s.stopTimersLocked()
	s.generation++
	s.remaining = s.interval
	if !s.playing {
		return
	}

	gen := s.generation
	s.cancelAutoplay = s.scheduler.Every(s.interval, func() { s.advance(gen) })
	s.cancelCountdown = s.scheduler.Every(CountdownTick, func() { s.countdown(gen) })
}

func (s *Session) stopTimersLocked() {
	if s.cancelAutoplay != nil {
		s.cancelAutoplay()
		s.cancelAutoplay = nil
	}
	if s.cancelCountdown != nil {
		s.cancelCountdown()
		s.cancelCountdown = nil
	}
}

// advance is the autoplay tick. At the last slide it pauses instead of
// wrapping.
func (s *Session) advance(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.state != StateReady || !s.playing {
		s.mu.Unlock()
		return
	}
	if s.index >= s.totalLocked()-1 {
		s.playing = false
	} else {
		s.index++
	}
	s.resetTimersLocked()
	s.mu.Unlock()

	s.notify()
}

func (s *Session) countdown(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.state != StateReady || !s.playing {
		s.mu.Unlock()
		return
	}
	if s.remaining <= CountdownTick {
		s.remaining = s.interval
	} else {
		s.remaining -= CountdownTick
	}
	s.mu.Unlock()

	s.notify()
}

func (s *Session) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Snapshot())
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       s.state,
		ScreenCode:  s.code,
		Index:       s.index,
		Playing:     s.playing,
		Fullscreen:  s.fullscreen,
		IntervalMS:  int(s.interval / time.Millisecond),
		RemainingMS: int(s.remaining / time.Millisecond),
		Error:       s.errMsg,
	}
	if s.presentation != nil {
		snap.Title = s.presentation.Title
		snap.TotalSlides = len(s.presentation.Slides)
		if s.index < len(s.presentation.Slides) {
			snap.SlideID = s.presentation.Slides[s.index].ID
			snap.SlideTitle = s.presentation.Slides[s.index].Title
		}
	}
	return snap
}
