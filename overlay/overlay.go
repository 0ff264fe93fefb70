// Package overlay renders the artwork marker layer that sits on top of
// the base map: filled circles for singletons and clusters, count labels
// for clusters, and pixel-exact hit testing for hover and click routing.
//
// Everything here is synchronous and single-threaded by design, matching
// an event-driven UI loop: an update runs cluster snapshot, scene rebuild
// and pick-buffer rebuild to completion before the next event can arrive,
// so no two updates ever interleave.
package overlay

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"go.uber.org/zap"

	"github.com/funvill/cultural-archiver-sub005/atlas"
	"github.com/funvill/cultural-archiver-sub005/cluster"
	"github.com/funvill/cultural-archiver-sub005/feature"
	"github.com/funvill/cultural-archiver-sub005/viewport"
)

// tileSize matches the base map's tile extent; screen projection has to
// agree with it or markers drift off their base-map positions.
const tileSize = 512

// DrawParam is one feature's fully derived draw state. Two updates with
// structurally identical inputs yield identical DrawParams, which is what
// tests compare instead of pixels.
type DrawParam struct {
	ID       string
	X, Y     float64 // canvas pixels
	Radius   float64
	Fill     string
	Cluster  bool
	Label    string
	FontSize float64

	srcIdx int // index into the layer's snapshot
}

// Option configures a Layer.
type Option func(*Layer)

// WithLogger sets the logger for degraded-path reporting.
func WithLogger(log *zap.Logger) Option {
	return func(l *Layer) { l.log = log }
}

// WithFontSource enables label text. Without one the label pass is
// skipped; sizing math never depends on it.
func WithFontSource(src *text.FontSource) Option {
	return func(l *Layer) { l.fonts = src }
}

// WithColorTable overrides the default category color table. The table is
// capped; see feature.MaxColorEntries.
func WithColorTable(t feature.ColorTable) Option {
	return func(l *Layer) { l.colors = t.Capped() }
}

// Layer owns the overlay scene and its pick buffer.
type Layer struct {
	width  int
	height int
	scene  *gg.Context
	pick   *gg.Context

	log    *zap.Logger
	fonts  *text.FontSource
	faces  map[float64]text.Face
	colors feature.ColorTable

	cam     viewport.Camera
	camSet  bool
	snap    []feature.Feature
	atl     *atlas.Atlas
	visible bool

	params  []DrawParam
	pickImg *image.RGBA
	cursor  string

	// Emitted toward the UI shell; either may be nil.
	OnMarkerClick  func(feature.Feature)
	OnClusterClick func(feature.Feature)

	ready  bool
	closed bool
}

// NewLayer creates the overlay for a canvas of the given pixel size.
// Failure to initialize is not fatal to the map: the layer comes back
// unready, every operation is a no-op, and the base map renders without
// the overlay.
func NewLayer(width, height int, opts ...Option) *Layer {
	l := &Layer{
		width:   width,
		height:  height,
		log:     zap.NewNop(),
		colors:  feature.DefaultColors,
		faces:   make(map[float64]text.Face),
		visible: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	if width <= 0 || height <= 0 {
		l.log.Warn("overlay disabled: invalid canvas size",
			zap.Int("width", width), zap.Int("height", height))
		return l
	}

	l.scene = gg.NewContext(width, height)
	l.pick = gg.NewContext(width, height)
	l.ready = true
	return l
}

// Ready reports whether the layer can draw and hit-test.
func (l *Layer) Ready() bool { return l.ready && !l.closed }

// SetCamera installs a new renderer camera and redraws. Called
// synchronously by the viewport bridge on every base-map move event, so
// the scene never lags the base map by more than the current dispatch.
func (l *Layer) SetCamera(cam viewport.Camera) {
	if !l.Ready() {
		return
	}
	l.cam = cam
	l.camSet = true
	l.redraw()
}

// Camera returns the camera the scene was last drawn with.
func (l *Layer) Camera() viewport.Camera { return l.cam }

// Update replaces the layer's data and redraws. The feature slice is
// snapshotted first: the GPU scene must only ever read plain detached
// data, never something the caller may still mutate. Update is
// idempotent; identical inputs derive identical scenes.
func (l *Layer) Update(features []feature.Feature, atl *atlas.Atlas, visible bool) {
	if !l.Ready() {
		return
	}
	l.snap = feature.Snapshot(features)
	l.atl = atl
	l.visible = visible
	l.redraw()
}

// SetVisible toggles the overlay without touching its data.
func (l *Layer) SetVisible(visible bool) {
	if !l.Ready() || l.visible == visible {
		return
	}
	l.visible = visible
	l.redraw()
}

// Scene returns the derived draw parameters of the last redraw.
func (l *Layer) Scene() []DrawParam { return l.params }

// Image returns the rendered overlay frame.
func (l *Layer) Image() image.Image {
	if !l.Ready() {
		return nil
	}
	return l.scene.Image()
}

// SavePNG writes the rendered overlay frame to disk.
func (l *Layer) SavePNG(path string) error {
	if !l.Ready() {
		return nil
	}
	return l.scene.SavePNG(path)
}

// Close releases both drawing contexts. The layer stays unready forever
// after; hosts create a fresh layer on remount.
func (l *Layer) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.ready = false
	l.params = nil
	l.pickImg = nil
	if l.scene != nil {
		l.scene.Close()
	}
	if l.pick != nil {
		l.pick.Close()
	}
	return nil
}

func (l *Layer) redraw() {
	l.params = l.computeParams()

	l.scene.Clear()
	l.pick.Clear()
	if !l.visible {
		l.pickImg = nil
		return
	}

	l.drawMarkers()
	l.drawLabels()
	l.drawPickBuffer()
	l.pickImg = l.pick.Image().(*image.RGBA)
}

// computeParams derives draw state for every snapshot feature near the
// canvas. Pure function of (snapshot, camera, colors).
func (l *Layer) computeParams() []DrawParam {
	if !l.camSet || len(l.snap) == 0 {
		return nil
	}

	baseZoom := l.cam.BaseZoom()
	scale := float64(tileSize) * math.Exp2(baseZoom)
	cx, cy := cluster.Project(l.cam.Longitude, l.cam.Latitude)
	cxp, cyp := cx*scale, cy*scale

	params := make([]DrawParam, 0, len(l.snap))
	for i, f := range l.snap {
		if !f.Valid() {
			continue
		}
		wx, wy := cluster.Project(f.Longitude, f.Latitude)
		x := wx*scale - cxp + float64(l.width)/2
		y := wy*scale - cyp + float64(l.height)/2

		p := DrawParam{ID: f.ID, X: x, Y: y, srcIdx: i}
		if f.Cluster {
			p.Cluster = true
			p.Label = abbreviateCount(f.Count())
			p.FontSize = labelFontSize(baseZoom)
			p.Radius = clusterRadius(f.Count(), baseZoom, f.ClusterRadiusPixels)
			p.Fill = feature.ClusterAccentColor
		} else {
			p.Radius = markerRadius(baseZoom)
			p.Fill = l.colors.Color(f.Category)
		}

		// Off-canvas features (clusterer padding) still cost draw time;
		// cull anything whose circle cannot touch the canvas.
		if x+p.Radius < 0 || x-p.Radius > float64(l.width) ||
			y+p.Radius < 0 || y-p.Radius > float64(l.height) {
			continue
		}
		params = append(params, p)
	}
	return params
}

func (l *Layer) drawMarkers() {
	for _, p := range l.params {
		l.scene.SetHexColor(p.Fill)
		l.scene.DrawCircle(p.X, p.Y, p.Radius)
		if err := l.scene.FillPreserve(); err != nil {
			l.log.Debug("marker fill failed", zap.String("id", p.ID), zap.Error(err))
		}
		l.scene.SetRGBA(1, 1, 1, 0.9)
		l.scene.SetLineWidth(2)
		if err := l.scene.Stroke(); err != nil {
			l.log.Debug("marker stroke failed", zap.String("id", p.ID), zap.Error(err))
		}

		if !p.Cluster && l.atl != nil {
			l.drawIcon(p)
		}
	}
}

// drawIcon blits the category sprite inside a singleton marker. Unknown
// categories get the atlas fallback swatch.
func (l *Layer) drawIcon(p DrawParam) {
	f := l.snap[p.srcIdx]
	if !l.atl.Contains(f.Category) {
		return
	}
	region := l.atl.Lookup(f.Category)
	size := p.Radius * 1.2
	src := image.Rect(region.X, region.Y, region.X+region.Size, region.Y+region.Size)
	l.scene.DrawImageEx(gg.ImageBufFromImage(l.atl.Image()), gg.DrawImageOptions{
		X:         p.X - size/2,
		Y:         p.Y - size/2,
		DstWidth:  size,
		DstHeight: size,
		SrcRect:   &src,
	})
}

func (l *Layer) drawLabels() {
	if l.fonts == nil {
		return
	}
	for _, p := range l.params {
		if !p.Cluster {
			continue
		}
		l.scene.SetFont(l.face(p.FontSize))
		l.scene.SetRGB(1, 1, 1)
		l.scene.DrawStringAnchored(p.Label, p.X, p.Y, 0.5, 0.35)
	}
}

func (l *Layer) face(size float64) text.Face {
	if f, ok := l.faces[size]; ok {
		return f
	}
	f := l.fonts.Face(size)
	l.faces[size] = f
	return f
}

// drawPickBuffer renders every feature as a solid circle whose color
// encodes its scene index, so a hit test is one pixel read.
func (l *Layer) drawPickBuffer() {
	for i, p := range l.params {
		r, g, b := encodePickID(i + 1)
		l.pick.SetRGB(r, g, b)
		l.pick.DrawCircle(p.X, p.Y, p.Radius)
		if err := l.pick.Fill(); err != nil {
			l.log.Debug("pick fill failed", zap.String("id", p.ID), zap.Error(err))
		}
	}
}

// encodePickID maps a 1-based scene index to a [0,1] color. The half-step
// offset keeps each channel on the same 8-bit value through the renderer's
// truncating quantization.
func encodePickID(id int) (r, g, b float64) {
	r = (float64((id>>16)&0xff) + 0.5) / 255
	g = (float64((id>>8)&0xff) + 0.5) / 255
	b = (float64(id&0xff) + 0.5) / 255
	return r, g, b
}
