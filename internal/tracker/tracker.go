package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dgallion1/scrollnav/internal/viewport"
)

// State is the presentation state of one content block.
type State string

const (
	StateInactive State = "inactive"
	StateActive   State = "active"
)

// DefaultThreshold is the visible fraction a block needs to become active.
const DefaultThreshold = 0.9

// Options configure a Tracker.
type Options struct {
	Threshold  float64
	RootMargin float64

	// ClearBelowThreshold deactivates blocks that are intersecting but below
	// Threshold. Off by default: such entries leave the state unchanged.
	ClearBelowThreshold bool
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// ObserverOptions returns the observer configuration matching these options.
func (o Options) ObserverOptions() viewport.Options {
	o = o.withDefaults()
	return viewport.Options{Thresholds: []float64{o.Threshold}, RootMargin: o.RootMargin}
}

// Flagger reflects a block's active state onto its presentation.
type Flagger interface {
	SetFlag(id string, on bool)
}

// FlaggerFunc adapts a function to Flagger.
type FlaggerFunc func(id string, on bool)

func (f FlaggerFunc) SetFlag(id string, on bool) { f(id, on) }

// Transition records a state change caused by one entry.
type Transition struct {
	Target string  `json:"target"`
	From   State   `json:"from"`
	To     State   `json:"to"`
	Ratio  float64 `json:"ratio"`
}

// Tracker toggles an active flag per block from intersection entries.
type Tracker struct {
	mu     sync.Mutex
	opts   Options
	flag   Flagger
	log    *slog.Logger
	states map[string]State
	order  []string
}

func New(opts Options, flag Flagger, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	if flag == nil {
		flag = FlaggerFunc(func(string, bool) {})
	}
	return &Tracker{
		opts:   opts.withDefaults(),
		flag:   flag,
		log:    log,
		states: make(map[string]State),
	}
}

// Options returns the effective options.
func (t *Tracker) Options() Options {
	return t.opts
}

// Observe registers blocks in the inactive state. Already observed ids keep
// their state.
func (t *Tracker) Observe(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if _, ok := t.states[id]; ok {
			continue
		}
		t.states[id] = StateInactive
		t.order = append(t.order, id)
	}
}

// Handle applies one batch. Each entry is evaluated on its own; the returned
// transitions are in batch order.
func (t *Tracker) Handle(batch []viewport.Entry) []Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Transition
	for _, e := range batch {
		from, ok := t.states[e.Target]
		if !ok {
			t.log.Debug("entry for unobserved block", "target", e.Target)
			continue
		}

		to := t.next(from, e)
		if to == from {
			continue
		}
		t.states[e.Target] = to
		t.flag.SetFlag(e.Target, to == StateActive)
		out = append(out, Transition{Target: e.Target, From: from, To: to, Ratio: e.Ratio})
	}
	return out
}

func (t *Tracker) next(from State, e viewport.Entry) State {
	switch {
	case !e.Intersecting:
		return StateInactive
	case e.Ratio >= t.opts.Threshold:
		return StateActive
	case t.opts.ClearBelowThreshold:
		return StateInactive
	default:
		return from
	}
}

// Run applies batches until the channel closes or ctx is done.
func (t *Tracker) Run(ctx context.Context, batches <-chan []viewport.Entry) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			for _, tr := range t.Handle(batch) {
				t.log.Debug("visibility transition", "target", tr.Target, "to", tr.To, "ratio", tr.Ratio)
			}
		}
	}
}

// State returns the state of id and whether it is observed.
func (t *Tracker) State(id string) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[id]
	return s, ok
}

// Active returns the active block ids in observation order.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []string{}
	for _, id := range t.order {
		if t.states[id] == StateActive {
			out = append(out, id)
		}
	}
	return out
}

// States returns a copy of every block's state, keyed by id.
func (t *Tracker) States() map[string]State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]State, len(t.states))
	for id, s := range t.states {
		out[id] = s
	}
	return out
}
