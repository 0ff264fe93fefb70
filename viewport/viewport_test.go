package viewport

import "testing"

// fakeEngine is a scriptable camera source standing in for the base map.
type fakeEngine struct {
	vp        Viewport
	listeners []func()
}

func (e *fakeEngine) Viewport() Viewport { return e.vp }

func (e *fakeEngine) OnMove(fn func()) (cancel func()) {
	i := len(e.listeners)
	e.listeners = append(e.listeners, fn)
	return func() { e.listeners[i] = nil }
}

func (e *fakeEngine) move(vp Viewport) {
	e.vp = vp
	for _, fn := range e.listeners {
		if fn != nil {
			fn()
		}
	}
}

// recordingSink captures every camera pushed through the bridge.
type recordingSink struct {
	cameras []Camera
}

func (s *recordingSink) SetCamera(cam Camera) {
	s.cameras = append(s.cameras, cam)
}

func TestDeriveCamera(t *testing.T) {
	cam := DeriveCamera(Viewport{Longitude: -123.1, Latitude: 49.3, Zoom: 12})

	if cam.Zoom != 12-ZoomOffset {
		t.Errorf("camera zoom %f, want %f", cam.Zoom, 12-ZoomOffset)
	}
	if cam.BaseZoom() != 12 {
		t.Errorf("BaseZoom %f, want 12", cam.BaseZoom())
	}
	if cam.Pitch != 0 || cam.Bearing != 0 {
		t.Errorf("pitch/bearing must stay zero, got %f/%f", cam.Pitch, cam.Bearing)
	}
	if cam.Longitude != -123.1 || cam.Latitude != 49.3 {
		t.Errorf("center changed: %f, %f", cam.Longitude, cam.Latitude)
	}
}

func TestBridgeSyncsInitialCamera(t *testing.T) {
	engine := &fakeEngine{vp: Viewport{Longitude: -123.1, Latitude: 49.3, Zoom: 12}}
	sink := &recordingSink{}

	b := NewBridge(engine, sink)
	defer b.Detach()

	if len(sink.cameras) != 1 {
		t.Fatalf("expected the initial camera push, got %d", len(sink.cameras))
	}
	if sink.cameras[0] != DeriveCamera(engine.vp) {
		t.Errorf("initial camera %+v does not match engine viewport", sink.cameras[0])
	}
	if b.Generation() != 1 {
		t.Errorf("generation %d, want 1", b.Generation())
	}
}

// The sink must hold the newest camera by the time each move event returns.
func TestBridgeNeverStale(t *testing.T) {
	engine := &fakeEngine{vp: Viewport{Zoom: 10}}
	sink := &recordingSink{}
	b := NewBridge(engine, sink)
	defer b.Detach()

	moves := []Viewport{
		{Longitude: -123.1, Latitude: 49.3, Zoom: 11},
		{Longitude: -123.2, Latitude: 49.2, Zoom: 13},
		{Longitude: -123.2, Latitude: 49.2, Zoom: 13.5},
	}
	for _, vp := range moves {
		engine.move(vp)
		latest := sink.cameras[len(sink.cameras)-1]
		if latest != DeriveCamera(vp) {
			t.Fatalf("sink camera %+v lags engine viewport %+v", latest, vp)
		}
	}
	if b.Generation() != uint64(1+len(moves)) {
		t.Errorf("generation %d, want %d", b.Generation(), 1+len(moves))
	}
}

func TestBridgeDetach(t *testing.T) {
	engine := &fakeEngine{vp: Viewport{Zoom: 10}}
	sink := &recordingSink{}
	b := NewBridge(engine, sink)

	b.Detach()
	b.Detach() // idempotent

	before := len(sink.cameras)
	engine.move(Viewport{Zoom: 15})
	if len(sink.cameras) != before {
		t.Error("detached bridge still pushed a camera")
	}
}
