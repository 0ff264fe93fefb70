// Package viewport keeps the overlay renderer's camera mirrored onto the
// base map's camera. The mapping is one-way: the base map is authoritative
// and the renderer's own interaction handling stays disabled, so there is
// no feedback loop to break.
package viewport

// ZoomOffset converts the base map's zoom convention into the renderer's.
// The renderer treats the world as one 512px tile at zoom 0 where the base
// map uses 256px, so the renderer always runs one level behind.
const ZoomOffset = 1.0

// Viewport is the base map camera plus the canvas pixel bounds.
type Viewport struct {
	Longitude float64
	Latitude  float64
	Zoom      float64
	Width     int
	Height    int
}

// Camera is the renderer-side camera. Pitch and bearing are always zero;
// the map is strictly 2-D.
type Camera struct {
	Longitude float64
	Latitude  float64
	Zoom      float64
	Pitch     float64
	Bearing   float64
}

// DeriveCamera maps a base map viewport to the renderer camera.
func DeriveCamera(vp Viewport) Camera {
	return Camera{
		Longitude: vp.Longitude,
		Latitude:  vp.Latitude,
		Zoom:      vp.Zoom - ZoomOffset,
		Pitch:     0,
		Bearing:   0,
	}
}

// BaseZoom recovers the base map zoom this camera mirrors. Marker sizing
// is specified in base map zoom bands, so the overlay converts back.
func (c Camera) BaseZoom() float64 {
	return c.Zoom + ZoomOffset
}

// MapEngine is the authoritative camera source (the base map instance).
type MapEngine interface {
	// Viewport returns the engine's current camera and canvas size.
	Viewport() Viewport
	// OnMove registers a callback invoked synchronously on every pan or
	// zoom event. The returned func unregisters it.
	OnMove(fn func()) (cancel func())
}

// CameraSink receives derived cameras. Implemented by the overlay layer.
type CameraSink interface {
	SetCamera(Camera)
}

// Bridge subscribes to a MapEngine and pushes the derived camera into a
// CameraSink on every move event. Everything is synchronous: by the time
// the engine's event dispatch returns, the sink has the new camera, so no
// frame can draw with stale state.
type Bridge struct {
	engine     MapEngine
	sink       CameraSink
	cancel     func()
	generation uint64
}

// NewBridge attaches a bridge and immediately syncs the initial camera.
func NewBridge(engine MapEngine, sink CameraSink) *Bridge {
	b := &Bridge{engine: engine, sink: sink}
	b.cancel = engine.OnMove(b.sync)
	b.sync()
	return b
}

func (b *Bridge) sync() {
	b.generation++
	b.sink.SetCamera(DeriveCamera(b.engine.Viewport()))
}

// Generation counts camera pushes. A sink comparing generations can assert
// it never rendered a camera older than the latest engine event.
func (b *Bridge) Generation() uint64 {
	return b.generation
}

// Detach unsubscribes from the engine. Safe to call more than once.
func (b *Bridge) Detach() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}
