package monitor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Check interval bounds, in seconds
const (
	MinCheckInterval     = 30
	MaxCheckInterval     = 300
	DefaultCheckInterval = 60
)

const probeTimeout = 15 * time.Second

// ClampInterval bounds a configured check interval to [30s, 300s].
// NaN and infinities fall back to the 60s default.
func ClampInterval(seconds float64) time.Duration {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = DefaultCheckInterval
	}
	seconds = math.Max(MinCheckInterval, math.Min(MaxCheckInterval, seconds))
	return time.Duration(seconds * float64(time.Second))
}

// Prober checks that a remote is reachable and accepts our credentials.
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// State is the last known reachability of one remote.
type State struct {
	Online    bool      `json:"online"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// Monitor periodically probes remotes and keeps their last state.
// Checks can be paused, e.g. while nobody is looking at the status.
type Monitor struct {
	mu       sync.RWMutex
	probers  []Prober
	states   map[string]State
	interval time.Duration
	paused   bool

	stopChan chan struct{}
	stopped  bool
	log      zerolog.Logger
}

// New creates a monitor. interval is in seconds and clamped.
func New(interval float64, probers ...Prober) *Monitor {
	return &Monitor{
		probers:  probers,
		states:   make(map[string]State),
		interval: ClampInterval(interval),
		stopChan: make(chan struct{}),
		log:      log.Logger.With().Str("component", "connection-monitor").Logger(),
	}
}

// Interval returns the effective check interval.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Start runs a first check right away and then checks every interval.
func (m *Monitor) Start() {
	m.log.Info().
		Dur("check_interval", m.interval).
		Int("remotes", len(m.probers)).
		Msg("connection monitor started")

	go m.checkLoop()
}

// Stop halts the background check goroutine.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.mu.Unlock()

	close(m.stopChan)
	m.log.Info().Msg("connection monitor stopped")
}

func (m *Monitor) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
}

func (m *Monitor) Resume() {
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
}

func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

func (m *Monitor) checkLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-m.stopChan
		cancel()
	}()

	m.CheckNow(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.Paused() {
				continue
			}
			m.CheckNow(ctx)
		case <-m.stopChan:
			return
		}
	}
}

// CheckNow probes every remote concurrently and returns the new states.
func (m *Monitor) CheckNow(ctx context.Context) map[string]State {
	var wg sync.WaitGroup
	for _, p := range m.probers {
		wg.Add(1)
		go func(p Prober) {
			defer wg.Done()
			m.check(ctx, p)
		}(p)
	}
	wg.Wait()

	return m.States()
}

func (m *Monitor) check(ctx context.Context, p Prober) {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := p.Probe(pctx)
	st := State{Online: err == nil, CheckedAt: time.Now().UTC()}
	if err != nil {
		st.Error = err.Error()
	}

	m.mu.Lock()
	prev, seen := m.states[p.Name()]
	m.states[p.Name()] = st
	m.mu.Unlock()

	if !seen || prev.Online != st.Online {
		ev := m.log.Info()
		if !st.Online {
			ev = m.log.Warn().Str("error", st.Error)
		}
		ev.Str("remote", p.Name()).Bool("online", st.Online).Msg("connection state changed")
	}
}

// States returns a copy of the last known states.
func (m *Monitor) States() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]State, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out
}

// Online reports reachability per remote, for metrics.
func (m *Monitor) Online() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.states))
	for k, v := range m.states {
		out[k] = v.Online
	}
	return out
}
