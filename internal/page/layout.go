package page

import "github.com/dgallion1/scrollnav/internal/viewport"

// StackLayout places blocks top to bottom, each height tall with gap pixels
// between them, on a fixed-width column.
func StackLayout(ids []string, width, height, gap float64) map[string]viewport.Rect {
	rects := make(map[string]viewport.Rect, len(ids))
	y := 0.0
	for _, id := range ids {
		rects[id] = viewport.Rect{X: 0, Y: y, Width: width, Height: height}
		y += height + gap
	}
	return rects
}

// BlockIDs lists the ids the tracker keys blocks by, in document order.
func (p *Page) BlockIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blockIDs()
}
