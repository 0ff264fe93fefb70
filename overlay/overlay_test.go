package overlay

import (
	"math"
	"reflect"
	"testing"

	"github.com/funvill/cultural-archiver-sub005/cluster"
	"github.com/funvill/cultural-archiver-sub005/feature"
	"github.com/funvill/cultural-archiver-sub005/viewport"
)

const (
	testLng      = -123.1207
	testLat      = 49.2827
	testBaseZoom = 14
)

// testFeatures places a singleton at the camera center and a cluster 60px
// to its right, positioned through the same projection the layer uses.
func testFeaturesAt(lng, lat float64) []feature.Feature {
	scale := float64(tileSize) * math.Exp2(testBaseZoom)
	cx, cy := cluster.Project(lng, lat)
	clusterLng, clusterLat := cluster.Unproject(cx+60/scale, cy)

	return []feature.Feature{
		{
			ID:        "artwork-000001",
			Longitude: lng,
			Latitude:  lat,
			Category:  "mural",
		},
		{
			ID:         "cluster-artwork-000002",
			Longitude:  clusterLng,
			Latitude:   clusterLat,
			Cluster:    true,
			PointCount: 12,
			Members:    []string{"artwork-000002", "artwork-000003"},
		},
	}
}

func newTestLayer(t *testing.T) *Layer {
	t.Helper()
	l := NewLayer(200, 200)
	if !l.Ready() {
		t.Fatal("layer failed to initialize")
	}
	t.Cleanup(func() { l.Close() })
	l.SetCamera(viewport.DeriveCamera(viewport.Viewport{
		Longitude: testLng,
		Latitude:  testLat,
		Zoom:      testBaseZoom,
	}))
	return l
}

func TestComputeParams(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, true)

	params := l.Scene()
	if len(params) != 2 {
		t.Fatalf("expected 2 draw params, got %d", len(params))
	}

	marker := params[0]
	if marker.Cluster {
		t.Fatal("first param should be the singleton")
	}
	if math.Abs(marker.X-100) > 1e-6 || math.Abs(marker.Y-100) > 1e-6 {
		t.Errorf("singleton at (%.2f, %.2f), want canvas center", marker.X, marker.Y)
	}
	if marker.Radius != markerRadius(testBaseZoom) {
		t.Errorf("singleton radius %.1f, want %.1f", marker.Radius, markerRadius(testBaseZoom))
	}
	if marker.Fill != feature.DefaultColors.Color("mural") {
		t.Errorf("singleton fill %s, want the mural color", marker.Fill)
	}
	if marker.Label != "" {
		t.Errorf("singletons carry no label, got %q", marker.Label)
	}

	cl := params[1]
	if !cl.Cluster {
		t.Fatal("second param should be the cluster")
	}
	if math.Abs(cl.X-160) > 1e-6 || math.Abs(cl.Y-100) > 1e-6 {
		t.Errorf("cluster at (%.2f, %.2f), want (160, 100)", cl.X, cl.Y)
	}
	if cl.Label != "12" {
		t.Errorf("cluster label %q, want \"12\"", cl.Label)
	}
	if cl.FontSize != labelFontSize(testBaseZoom) {
		t.Errorf("cluster font size %.1f, want %.1f", cl.FontSize, labelFontSize(testBaseZoom))
	}
	if cl.Radius != clusterRadius(12, testBaseZoom, 0) {
		t.Errorf("cluster radius %.1f, want %.1f", cl.Radius, clusterRadius(12, testBaseZoom, 0))
	}
	if cl.Fill != feature.ClusterAccentColor {
		t.Errorf("cluster fill %s, want the accent color", cl.Fill)
	}
}

// Two updates with structurally identical inputs must derive identical
// scenes, byte for byte.
func TestUpdateIdempotent(t *testing.T) {
	l := newTestLayer(t)

	l.Update(testFeaturesAt(testLng, testLat), nil, true)
	first := append([]DrawParam(nil), l.Scene()...)

	l.Update(testFeaturesAt(testLng, testLat), nil, true)
	if !reflect.DeepEqual(first, l.Scene()) {
		t.Errorf("identical inputs derived different scenes:\n%+v\nvs\n%+v", first, l.Scene())
	}
}

func TestUpdateCullsOffCanvas(t *testing.T) {
	l := newTestLayer(t)
	l.Update([]feature.Feature{
		{ID: "in-view", Longitude: testLng, Latitude: testLat},
		{ID: "elsewhere", Longitude: testLng + 1, Latitude: testLat},
		{ID: "bad", Longitude: math.NaN(), Latitude: testLat},
	}, nil, true)

	params := l.Scene()
	if len(params) != 1 || params[0].ID != "in-view" {
		t.Errorf("expected only the in-view feature, got %+v", params)
	}
}

func TestUpdateSnapshotsInput(t *testing.T) {
	l := newTestLayer(t)
	features := testFeaturesAt(testLng, testLat)
	features[0].Properties = map[string]interface{}{"title": "East Van Cross"}
	l.Update(features, nil, true)

	features[0].Properties["title"] = "mutated"
	features[1].Members[0] = "mutated"

	picked, ok := l.PickAt(100, 100)
	if !ok {
		t.Fatal("expected a hit at the singleton")
	}
	if picked.Properties["title"] != "East Van Cross" {
		t.Error("layer data mutated through the caller's slice")
	}
}

func TestPickAt(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, true)

	f, ok := l.PickAt(100, 100)
	if !ok || f.ID != "artwork-000001" {
		t.Errorf("center pick = (%v, %v), want the singleton", f.ID, ok)
	}

	f, ok = l.PickAt(160, 100)
	if !ok || f.ID != "cluster-artwork-000002" {
		t.Errorf("cluster pick = (%v, %v), want the cluster", f.ID, ok)
	}

	if _, ok := l.PickAt(10, 190); ok {
		t.Error("expected a miss on empty canvas")
	}
	if _, ok := l.PickAt(-1, 100); ok {
		t.Error("expected a miss outside the canvas")
	}
	if _, ok := l.PickAt(100, 10000); ok {
		t.Error("expected a miss outside the canvas")
	}
}

func TestHandlePointerMoveCursor(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, true)

	l.HandlePointerMove(100, 100)
	if l.Cursor() != "pointer" {
		t.Errorf("cursor over a marker = %q, want \"pointer\"", l.Cursor())
	}
	l.HandlePointerMove(10, 190)
	if l.Cursor() != "" {
		t.Errorf("cursor over empty canvas = %q, want empty", l.Cursor())
	}
}

func TestHandleClickRouting(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, true)

	var markerID, clusterID string
	l.OnMarkerClick = func(f feature.Feature) { markerID = f.ID }
	l.OnClusterClick = func(f feature.Feature) { clusterID = f.ID }

	l.HandleClick(100, 100)
	if markerID != "artwork-000001" || clusterID != "" {
		t.Errorf("marker click routed as (%q, %q)", markerID, clusterID)
	}

	markerID = ""
	l.HandleClick(160, 100)
	if clusterID != "cluster-artwork-000002" || markerID != "" {
		t.Errorf("cluster click routed as (%q, %q)", markerID, clusterID)
	}

	clusterID = ""
	l.HandleClick(10, 190)
	if markerID != "" || clusterID != "" {
		t.Error("miss click should emit nothing")
	}
}

func TestHandleClickNilCallbacks(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, true)
	// No callbacks registered; must not panic.
	l.HandleClick(100, 100)
	l.HandleClick(160, 100)
}

func TestVisibilityGatesPicking(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, false)

	if _, ok := l.PickAt(100, 100); ok {
		t.Error("hidden overlay should never report hits")
	}

	l.SetVisible(true)
	if _, ok := l.PickAt(100, 100); !ok {
		t.Error("expected a hit after showing the overlay")
	}

	l.SetVisible(false)
	if _, ok := l.PickAt(100, 100); ok {
		t.Error("expected a miss after hiding the overlay")
	}
}

func TestUnreadyLayerNoOps(t *testing.T) {
	l := NewLayer(0, 0)
	defer l.Close()

	if l.Ready() {
		t.Fatal("zero-size layer should come back unready")
	}
	// All operations degrade to no-ops rather than panicking.
	l.SetCamera(viewport.Camera{})
	l.Update(testFeaturesAt(testLng, testLat), nil, true)
	l.HandleClick(0, 0)
	if _, ok := l.PickAt(0, 0); ok {
		t.Error("unready layer reported a hit")
	}
	if l.Image() != nil {
		t.Error("unready layer returned an image")
	}
	if err := l.SavePNG("unused.png"); err != nil {
		t.Errorf("unready SavePNG should be a silent no-op, got %v", err)
	}
}

func TestCloseMakesLayerUnready(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, true)

	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if l.Ready() {
		t.Error("layer still ready after Close")
	}
	if _, ok := l.PickAt(100, 100); ok {
		t.Error("closed layer reported a hit")
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close errored: %v", err)
	}
}

func TestSetCameraRepositions(t *testing.T) {
	l := newTestLayer(t)
	l.Update(testFeaturesAt(testLng, testLat), nil, true)

	// Pan so the singleton lands left of center.
	scale := float64(tileSize) * math.Exp2(testBaseZoom)
	cx, cy := cluster.Project(testLng, testLat)
	newLng, newLat := cluster.Unproject(cx+30/scale, cy)
	l.SetCamera(viewport.DeriveCamera(viewport.Viewport{
		Longitude: newLng,
		Latitude:  newLat,
		Zoom:      testBaseZoom,
	}))

	params := l.Scene()
	if len(params) == 0 {
		t.Fatal("scene empty after camera move")
	}
	if math.Abs(params[0].X-70) > 1e-6 {
		t.Errorf("singleton at x=%.2f after pan, want 70", params[0].X)
	}
}
