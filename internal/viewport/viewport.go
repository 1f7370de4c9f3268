package viewport

import "sort"

// Rect is an axis-aligned box in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Intersect returns the overlap of r and o. ok is true when the rects overlap
// or share an edge, so edge-adjacent rects intersect with zero area.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	left := max(r.X, o.X)
	top := max(r.Y, o.Y)
	right := min(r.X+r.Width, o.X+o.Width)
	bottom := min(r.Y+r.Height, o.Y+o.Height)
	if right < left || bottom < top {
		return Rect{}, false
	}
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, true
}

// Expand grows r by margin on every side. Negative margins shrink it.
func (r Rect) Expand(margin float64) Rect {
	return Rect{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// Entry is one intersection notification.
type Entry struct {
	Target       string  `json:"target"`
	Ratio        float64 `json:"ratio"`
	Intersecting bool    `json:"intersecting"`
}

// Options configure an Observer. The root is always the viewport.
type Options struct {
	Thresholds []float64
	RootMargin float64
}

type target struct {
	id     string
	bounds Rect
	order  int

	// -1 until the first update.
	prevThreshold    int
	prevIntersecting bool
}

// Observer tracks targets against a viewport and reports a target whenever
// its threshold index or intersecting state changes. It is not safe for
// concurrent use.
type Observer struct {
	thresholds []float64
	margin     float64
	targets    map[string]*target
	next       int
}

func NewObserver(opts Options) *Observer {
	th := append([]float64(nil), opts.Thresholds...)
	if len(th) == 0 {
		th = []float64{0}
	}
	sort.Float64s(th)
	return &Observer{
		thresholds: th,
		margin:     opts.RootMargin,
		targets:    make(map[string]*target),
	}
}

// Observe starts (or restarts) observation of id. The next Update always
// reports it.
func (o *Observer) Observe(id string, bounds Rect) {
	if t, ok := o.targets[id]; ok {
		t.bounds = bounds
		t.prevThreshold = -1
		t.prevIntersecting = false
		return
	}
	o.targets[id] = &target{id: id, bounds: bounds, order: o.next, prevThreshold: -1}
	o.next++
}

func (o *Observer) Unobserve(id string) {
	delete(o.targets, id)
}

// Len returns the number of observed targets.
func (o *Observer) Len() int {
	return len(o.targets)
}

// Update computes intersections against view and returns the entries that
// changed, in observation order.
func (o *Observer) Update(view Rect) []Entry {
	root := view.Expand(o.margin)

	ordered := make([]*target, 0, len(o.targets))
	for _, t := range o.targets {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	var out []Entry
	for _, t := range ordered {
		ratio, intersecting := Ratio(t.bounds, root)
		idx := o.thresholdIndex(ratio)
		if idx == t.prevThreshold && intersecting == t.prevIntersecting {
			continue
		}
		t.prevThreshold = idx
		t.prevIntersecting = intersecting
		out = append(out, Entry{Target: t.id, Ratio: ratio, Intersecting: intersecting})
	}
	return out
}

// thresholdIndex is the index of the first threshold above ratio, or
// len(thresholds) when ratio reaches the last one.
func (o *Observer) thresholdIndex(ratio float64) int {
	return sort.Search(len(o.thresholds), func(i int) bool { return o.thresholds[i] > ratio })
}

// Ratio returns the visible fraction of target within root. Zero-area targets
// report 1 while intersecting.
func Ratio(target, root Rect) (float64, bool) {
	inter, ok := target.Intersect(root)
	if !ok {
		return 0, false
	}
	area := target.Area()
	if area == 0 {
		return 1, true
	}
	return inter.Area() / area, true
}
