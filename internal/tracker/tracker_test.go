package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/scrollnav/internal/viewport"
)

// recorder keeps the last flag written per block.
type recorder struct {
	flags map[string]bool
	calls int
}

func newRecorder() *recorder { return &recorder{flags: map[string]bool{}} }

func (r *recorder) SetFlag(id string, on bool) {
	r.flags[id] = on
	r.calls++
}

func entry(target string, ratio float64) viewport.Entry {
	return viewport.Entry{Target: target, Ratio: ratio, Intersecting: ratio > 0}
}

func TestHandle_ReachingThresholdActivates(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{}, rec, nil)
	tr.Observe("intro")

	got := tr.Handle([]viewport.Entry{entry("intro", 0.9)})
	if len(got) != 1 || got[0].To != StateActive || got[0].From != StateInactive {
		t.Fatalf("expected inactive->active transition, got %+v", got)
	}
	if !rec.flags["intro"] {
		t.Error("expected flag set")
	}
	if s, _ := tr.State("intro"); s != StateActive {
		t.Errorf("expected active, got %s", s)
	}
}

func TestHandle_AlreadyActiveStaysActive(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{}, rec, nil)
	tr.Observe("intro")
	tr.Handle([]viewport.Entry{entry("intro", 1.0)})

	got := tr.Handle([]viewport.Entry{entry("intro", 0.95)})
	if len(got) != 0 {
		t.Errorf("expected no transition, got %+v", got)
	}
	if !rec.flags["intro"] {
		t.Error("expected flag to remain set")
	}
	if rec.calls != 1 {
		t.Errorf("expected one flag write, got %d", rec.calls)
	}
}

func TestHandle_NotIntersectingClears(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{}, rec, nil)
	tr.Observe("intro")
	tr.Handle([]viewport.Entry{entry("intro", 1.0)})

	got := tr.Handle([]viewport.Entry{entry("intro", 0)})
	if len(got) != 1 || got[0].To != StateInactive {
		t.Fatalf("expected active->inactive, got %+v", got)
	}
	if rec.flags["intro"] {
		t.Error("expected flag cleared")
	}
}

func TestHandle_PartialVisibilityKeepsState(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{}, rec, nil)
	tr.Observe("features")

	tr.Handle([]viewport.Entry{entry("features", 0.95)})
	got := tr.Handle([]viewport.Entry{entry("features", 0.3)})
	if len(got) != 0 {
		t.Errorf("expected no transition for sub-threshold ratio, got %+v", got)
	}
	if !rec.flags["features"] {
		t.Error("expected flag to remain set at 0.3")
	}

	// From inactive, a partial entry does not activate either.
	tr.Observe("contact")
	tr.Handle([]viewport.Entry{entry("contact", 0.5)})
	if s, _ := tr.State("contact"); s != StateInactive {
		t.Errorf("expected contact inactive, got %s", s)
	}
}

func TestHandle_ClearBelowThreshold(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{ClearBelowThreshold: true}, rec, nil)
	tr.Observe("features")

	tr.Handle([]viewport.Entry{entry("features", 0.95)})
	got := tr.Handle([]viewport.Entry{entry("features", 0.3)})
	if len(got) != 1 || got[0].To != StateInactive {
		t.Fatalf("expected sub-threshold entry to clear, got %+v", got)
	}
	if rec.flags["features"] {
		t.Error("expected flag cleared")
	}
}

func TestHandle_BatchEntriesAreIndependent(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{}, rec, nil)
	tr.Observe("a", "b", "c")
	tr.Handle([]viewport.Entry{entry("b", 1)})

	got := tr.Handle([]viewport.Entry{
		entry("a", 1),
		entry("b", 0),
		entry("c", 0.4),
		entry("unknown", 1),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions, got %+v", got)
	}
	if got[0].Target != "a" || got[1].Target != "b" {
		t.Errorf("expected transitions in batch order, got %+v", got)
	}
	active := tr.Active()
	if len(active) != 1 || active[0] != "a" {
		t.Errorf("expected only a active, got %v", active)
	}
	if _, ok := tr.State("unknown"); ok {
		t.Error("expected unobserved target to stay unknown")
	}
}

func TestHandle_CustomThreshold(t *testing.T) {
	tr := New(Options{Threshold: 0.5}, nil, nil)
	tr.Observe("a")
	tr.Handle([]viewport.Entry{entry("a", 0.5)})
	if s, _ := tr.State("a"); s != StateActive {
		t.Errorf("expected active at custom threshold, got %s", s)
	}
}

func TestOptions_Defaults(t *testing.T) {
	tr := New(Options{Threshold: 7}, nil, nil)
	if tr.Options().Threshold != DefaultThreshold {
		t.Errorf("expected out-of-range threshold to fall back to %v, got %v", DefaultThreshold, tr.Options().Threshold)
	}
	obs := Options{RootMargin: 10}.ObserverOptions()
	if len(obs.Thresholds) != 1 || obs.Thresholds[0] != DefaultThreshold || obs.RootMargin != 10 {
		t.Errorf("unexpected observer options %+v", obs)
	}
}

func TestObserve_KeepsExistingState(t *testing.T) {
	tr := New(Options{}, nil, nil)
	tr.Observe("a")
	tr.Handle([]viewport.Entry{entry("a", 1)})
	tr.Observe("a")
	if s, _ := tr.State("a"); s != StateActive {
		t.Errorf("expected re-observe to keep state, got %s", s)
	}
	if len(tr.States()) != 1 {
		t.Errorf("expected one observed block, got %d", len(tr.States()))
	}
}

func TestRun_ConsumesUntilClosed(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{}, rec, nil)
	tr.Observe("s")

	batches := make(chan []viewport.Entry)
	done := make(chan error, 1)
	go func() { done <- tr.Run(context.Background(), batches) }()

	batches <- []viewport.Entry{entry("s", 1.0)}
	batches <- []viewport.Entry{entry("s", 0.0)}
	batches <- []viewport.Entry{entry("s", 1.0)}
	close(batches)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on close, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}
	if s, _ := tr.State("s"); s != StateActive {
		t.Errorf("expected active after final batch, got %s", s)
	}
	if rec.calls != 3 {
		t.Errorf("expected 3 flag writes, got %d", rec.calls)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	tr := New(Options{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Run(ctx, make(chan []viewport.Entry))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestObserverDrivesTracker_ScrollInThenOut(t *testing.T) {
	rec := newRecorder()
	tr := New(Options{}, rec, nil)
	obs := viewport.NewObserver(tr.Options().ObserverOptions())

	block := viewport.Rect{Y: 1000, Width: 1000, Height: 500}
	obs.Observe("section1", block)
	tr.Observe("section1")

	view := func(y float64) viewport.Rect { return viewport.Rect{Y: y, Width: 1000, Height: 800} }

	tr.Handle(obs.Update(view(0)))
	if rec.flags["section1"] {
		t.Fatal("expected inactive while off screen")
	}

	tr.Handle(obs.Update(view(900)))
	if !rec.flags["section1"] {
		t.Fatal("expected active once fully in view")
	}

	tr.Handle(obs.Update(view(3000)))
	if rec.flags["section1"] {
		t.Fatal("expected inactive once fully out of view")
	}
}
