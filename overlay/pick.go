package overlay

import "github.com/funvill/cultural-archiver-sub005/feature"

// Hit testing reads the pick buffer the last redraw produced. Misses are
// normal, not errors: before the first draw completes, after Close, or
// while the overlay is hidden there is simply nothing to hit, and pointer
// events during that window are swallowed.

// PickAt returns the feature drawn topmost at canvas pixel (x, y).
func (l *Layer) PickAt(x, y int) (feature.Feature, bool) {
	if !l.Ready() || l.pickImg == nil {
		return feature.Feature{}, false
	}
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return feature.Feature{}, false
	}

	c := l.pickImg.RGBAAt(x, y)
	id := int(c.R)<<16 | int(c.G)<<8 | int(c.B)
	if id == 0 || id > len(l.params) {
		// Zero is background; out-of-range values come from anti-aliased
		// edge pixels blending two encodings. Both count as a miss.
		return feature.Feature{}, false
	}
	return l.snap[l.params[id-1].srcIdx], true
}

// HandlePointerMove updates the hover cursor affordance for the UI shell.
func (l *Layer) HandlePointerMove(x, y int) {
	if _, ok := l.PickAt(x, y); ok {
		l.cursor = "pointer"
		return
	}
	l.cursor = ""
}

// Cursor returns "pointer" while the pointer hovers a feature, "" otherwise.
func (l *Layer) Cursor() string { return l.cursor }

// HandleClick hit-tests the click position and routes it: clusters emit a
// cluster-expand event, singletons a marker-select event. No hit, no event.
func (l *Layer) HandleClick(x, y int) {
	f, ok := l.PickAt(x, y)
	if !ok {
		return
	}
	if f.Cluster {
		if l.OnClusterClick != nil {
			l.OnClusterClick(f)
		}
		return
	}
	if l.OnMarkerClick != nil {
		l.OnMarkerClick(f)
	}
}
