package viewport

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	block := Rect{Y: 1000, Width: 1000, Height: 500}
	tests := []struct {
		name             string
		view             Rect
		wantRatio        float64
		wantIntersecting bool
	}{
		{"fully inside", Rect{Y: 900, Width: 1000, Height: 800}, 1, true},
		{"half visible", Rect{Y: 450, Width: 1000, Height: 800}, 0.5, true},
		{"edge adjacent", Rect{Y: 200, Width: 1000, Height: 800}, 0, true},
		{"far above", Rect{Y: 0, Width: 1000, Height: 800}, 0, false},
		{"far below", Rect{Y: 2000, Width: 1000, Height: 800}, 0, false},
	}
	for _, tt := range tests {
		ratio, ok := Ratio(block, tt.view)
		if math.Abs(ratio-tt.wantRatio) > 1e-9 {
			t.Errorf("%s: expected ratio %v, got %v", tt.name, tt.wantRatio, ratio)
		}
		if ok != tt.wantIntersecting {
			t.Errorf("%s: expected intersecting=%v, got %v", tt.name, tt.wantIntersecting, ok)
		}
	}
}

func TestRatio_ZeroAreaTarget(t *testing.T) {
	ratio, ok := Ratio(Rect{Y: 10}, Rect{Width: 100, Height: 100})
	if !ok || ratio != 1 {
		t.Errorf("expected zero-area target inside root to report 1/true, got %v/%v", ratio, ok)
	}
}

func TestExpand(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}.Expand(5)
	want := Rect{X: 5, Y: 5, Width: 110, Height: 60}
	if r != want {
		t.Errorf("expected %+v, got %+v", want, r)
	}
}

func TestObserver_FirstUpdateReportsEveryTarget(t *testing.T) {
	o := NewObserver(Options{Thresholds: []float64{0.9}})
	o.Observe("a", Rect{Y: 0, Width: 100, Height: 100})
	o.Observe("b", Rect{Y: 5000, Width: 100, Height: 100})

	entries := o.Update(Rect{Width: 100, Height: 800})
	if len(entries) != 2 {
		t.Fatalf("expected 2 initial entries, got %d", len(entries))
	}
	if entries[0].Target != "a" || entries[1].Target != "b" {
		t.Errorf("expected observation order a,b, got %s,%s", entries[0].Target, entries[1].Target)
	}
	if !entries[0].Intersecting || entries[0].Ratio != 1 {
		t.Errorf("expected a fully visible, got %+v", entries[0])
	}
	if entries[1].Intersecting {
		t.Errorf("expected b not intersecting, got %+v", entries[1])
	}

	// Nothing moved: no notifications.
	if again := o.Update(Rect{Width: 100, Height: 800}); len(again) != 0 {
		t.Errorf("expected no entries without change, got %v", again)
	}
}

func TestObserver_ThresholdCrossings(t *testing.T) {
	o := NewObserver(Options{Thresholds: []float64{0.9}})
	o.Observe("s", Rect{Y: 1000, Width: 100, Height: 500})

	// Starts off screen.
	o.Update(Rect{Y: 0, Width: 100, Height: 400})

	// Scroll so 20% is visible: intersecting changes, still below threshold.
	got := o.Update(Rect{Y: 700, Width: 100, Height: 400})
	if len(got) != 1 || !got[0].Intersecting || math.Abs(got[0].Ratio-0.2) > 1e-9 {
		t.Fatalf("expected one partial entry at 0.2, got %+v", got)
	}

	// 40% visible: same threshold bucket, same intersecting state.
	if got := o.Update(Rect{Y: 800, Width: 100, Height: 400}); len(got) != 0 {
		t.Errorf("expected no entry within the same bucket, got %+v", got)
	}

	// Whole block in a taller viewport: crosses 0.9.
	got = o.Update(Rect{Y: 900, Width: 100, Height: 800})
	if len(got) != 1 || got[0].Ratio != 1 {
		t.Fatalf("expected crossing entry at ratio 1, got %+v", got)
	}

	// Fully out.
	got = o.Update(Rect{Y: 3000, Width: 100, Height: 800})
	if len(got) != 1 || got[0].Intersecting || got[0].Ratio != 0 {
		t.Fatalf("expected leaving entry, got %+v", got)
	}
}

func TestObserver_RootMargin(t *testing.T) {
	o := NewObserver(Options{Thresholds: []float64{0.9}, RootMargin: 200})
	o.Observe("s", Rect{Y: 850, Width: 100, Height: 100})

	// Block sits just below an 800px viewport; the margin pulls it in.
	got := o.Update(Rect{Y: 0, Width: 100, Height: 800})
	if len(got) != 1 || got[0].Ratio != 1 {
		t.Fatalf("expected margin to make block fully visible, got %+v", got)
	}
}

func TestObserver_UnobserveAndReobserve(t *testing.T) {
	o := NewObserver(Options{Thresholds: []float64{0.9}})
	o.Observe("s", Rect{Width: 10, Height: 10})
	o.Update(Rect{Width: 100, Height: 100})

	o.Observe("s", Rect{Width: 10, Height: 10})
	if got := o.Update(Rect{Width: 100, Height: 100}); len(got) != 1 {
		t.Errorf("expected re-observed target to be reported again, got %d", len(got))
	}

	o.Unobserve("s")
	if o.Len() != 0 {
		t.Errorf("expected no targets, got %d", o.Len())
	}
	if got := o.Update(Rect{Width: 100, Height: 100}); len(got) != 0 {
		t.Errorf("expected no entries after unobserve, got %+v", got)
	}
}
