// Package progress holds the observable state of load cycles.
package progress

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"mail_loader/internal/domain"
)

// State is a snapshot of a load cycle as shown to users.
type State struct {
	IsLoading      bool         `json:"isLoading"`
	Progress       int          `json:"progress"`
	Phase          domain.Phase `json:"phase"`
	EmailsLoaded   int          `json:"emailsLoaded"`
	TotalEmails    int          `json:"totalEmails"`
	CurrentMessage string       `json:"currentMessage"`
	Error          string       `json:"error,omitempty"`
}

type Options struct {
	MessageInterval time.Duration
	ResetDelay      time.Duration
	Messages        []string
	// Intn returns a random int in [0, n). Defaults to math/rand/v2.
	Intn func(n int) int
}

// Tracker is the progress state machine:
// idle -> fetching -> processing -> scoring -> complete -> idle,
// with error reachable from any phase.
type Tracker struct {
	mu    sync.Mutex
	opts  Options
	state State
	subs  map[chan State]struct{}

	// generation increments on every cycle change so stale timers can tell
	// they have been superseded.
	generation int
	stopRotate chan struct{}
	resetTimer *time.Timer
	closed     bool

	logger *slog.Logger
}

func NewTracker(opts Options, logger *slog.Logger) *Tracker {
	if opts.MessageInterval <= 0 {
		opts.MessageInterval = 2500 * time.Millisecond
	}
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = 3 * time.Second
	}
	if len(opts.Messages) == 0 {
		opts.Messages = DefaultMessages
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}
	return &Tracker{
		opts:   opts,
		state:  State{Phase: domain.PhaseIdle},
		subs:   make(map[chan State]struct{}),
		logger: logger.With("component", "progress"),
	}
}

func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe returns a channel receiving every state change, starting with
// the current state. Slow subscribers miss updates rather than block.
func (t *Tracker) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 16)

	t.mu.Lock()
	ch <- t.state
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			if _, ok := t.subs[ch]; ok {
				delete(t.subs, ch)
				close(ch)
			}
			t.mu.Unlock()
		})
	}
}

// StartLoading begins a cycle: counters reset, phase fetching, rotation on.
func (t *Tracker) StartLoading(totalEstimate int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	t.stopTimersLocked()
	t.generation++
	t.state = State{
		IsLoading:      true,
		Phase:          domain.PhaseFetching,
		TotalEmails:    max(totalEstimate, 0),
		CurrentMessage: nextMessage(t.opts.Messages, t.state.CurrentMessage, t.opts.Intn),
	}

	stop := make(chan struct{})
	t.stopRotate = stop
	go t.rotate(stop, t.generation)

	t.publishLocked()
}

// UpdateProgress recomputes the percentage from loaded and total. The phase
// changes only when one is given and it does not move the cycle backwards.
// Updates outside a running cycle are ignored.
func (t *Tracker) UpdateProgress(loaded, total int, phase ...domain.Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.IsLoading {
		return
	}

	t.state.EmailsLoaded = loaded
	t.state.TotalEmails = total
	if pct := Percent(loaded, total); pct > t.state.Progress {
		t.state.Progress = pct
	}
	if len(phase) > 0 {
		next := phase[0]
		if next.Rank() >= t.state.Phase.Rank() {
			t.state.Phase = next
		} else {
			t.logger.Debug("ignoring backwards phase", "from", t.state.Phase, "to", next)
		}
	}

	t.publishLocked()
}

// CompleteLoading marks the cycle complete and schedules the return to idle.
func (t *Tracker) CompleteLoading() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completeLocked()
}

// ReportFresh reports a cycle that was skipped because the store is fresh:
// count is shown as both loaded and total.
func (t *Tracker) ReportFresh(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTimersLocked()
	t.generation++
	t.state.EmailsLoaded = count
	t.state.TotalEmails = count
	t.state.Error = ""
	t.completeLocked()
}

func (t *Tracker) completeLocked() {
	if t.closed {
		return
	}
	t.stopTimersLocked()
	t.state.IsLoading = false
	t.state.Phase = domain.PhaseComplete
	t.state.Progress = 100
	t.publishLocked()

	gen := t.generation
	t.resetTimer = time.AfterFunc(t.opts.ResetDelay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.generation != gen || t.closed || t.state.Phase != domain.PhaseComplete {
			return
		}
		t.state = State{
			Phase:        domain.PhaseIdle,
			EmailsLoaded: t.state.EmailsLoaded,
			TotalEmails:  t.state.TotalEmails,
		}
		t.publishLocked()
	})
}

// SetError ends the cycle immediately. The message stays until ClearError
// or the next StartLoading.
func (t *Tracker) SetError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.stopTimersLocked()
	t.generation++
	t.state.Error = message
	t.state.IsLoading = false
	t.state.Phase = domain.PhaseIdle
	t.publishLocked()
}

// Cancel abandons a running cycle without reporting an error: rotation
// stops and the tracker returns to idle. It does nothing outside a cycle.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || !t.state.IsLoading {
		return
	}
	t.stopTimersLocked()
	t.generation++
	t.state = State{
		Phase:        domain.PhaseIdle,
		EmailsLoaded: t.state.EmailsLoaded,
		TotalEmails:  t.state.TotalEmails,
	}
	t.publishLocked()
}

func (t *Tracker) ClearError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Error == "" {
		return
	}
	t.state.Error = ""
	t.publishLocked()
}

// Close stops timers and closes all subscriber channels.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.stopTimersLocked()
	for ch := range t.subs {
		close(ch)
		delete(t.subs, ch)
	}
}

func (t *Tracker) rotate(stop <-chan struct{}, gen int) {
	ticker := time.NewTicker(t.opts.MessageInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.generation != gen || !t.state.IsLoading {
				t.mu.Unlock()
				return
			}
			t.state.CurrentMessage = nextMessage(t.opts.Messages, t.state.CurrentMessage, t.opts.Intn)
			t.publishLocked()
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) stopTimersLocked() {
	if t.stopRotate != nil {
		close(t.stopRotate)
		t.stopRotate = nil
	}
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
}

func (t *Tracker) publishLocked() {
	for ch := range t.subs {
		select {
		case ch <- t.state:
		default:
		}
	}
}

// Percent is round(loaded/total*100) clamped to [0, 100]; 0 when total is 0.
func Percent(loaded, total int) int {
	if total <= 0 || loaded <= 0 {
		return 0
	}
	pct := int(math.Round(float64(loaded) / float64(total) * 100))
	return min(pct, 100)
}
