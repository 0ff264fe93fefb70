// Command snapshot renders the artwork overlay for one viewport to a PNG.
// Useful for eyeballing clustering and sizing without a browser.
package main

import (
	"flag"
	"os"

	"github.com/gogpu/gg/text"
	"go.uber.org/zap"

	"github.com/funvill/cultural-archiver-sub005/atlas"
	"github.com/funvill/cultural-archiver-sub005/cluster"
	"github.com/funvill/cultural-archiver-sub005/feature"
	"github.com/funvill/cultural-archiver-sub005/overlay"
	"github.com/funvill/cultural-archiver-sub005/viewport"
)

var (
	input  = flag.String("input", "", "compressed artwork snapshot to render (generates a demo set if empty)")
	points = flag.Int("points", 2000, "demo set size when no input is given")
	lng    = flag.Float64("lng", -123.1207, "viewport center longitude")
	lat    = flag.Float64("lat", 49.2827, "viewport center latitude")
	zoom   = flag.Float64("zoom", 12, "base map zoom")
	width  = flag.Int("width", 1280, "canvas width in pixels")
	height = flag.Int("height", 800, "canvas height in pixels")
	out    = flag.String("out", "overlay.png", "output PNG path")
	font   = flag.String("font", "", "TTF font for cluster labels (searches system fonts if empty)")
)

// staticEngine serves one fixed camera; the bridge works the same as it
// would against a live base map.
type staticEngine struct{ vp viewport.Viewport }

func (e staticEngine) Viewport() viewport.Viewport   { return e.vp }
func (e staticEngine) OnMove(func()) (cancel func()) { return func() {} }

func main() {
	flag.Parse()
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	var ix *cluster.Index
	if *input != "" {
		loaded, err := cluster.LoadCompressed(*input)
		if err != nil {
			log.Fatal("failed to load artwork snapshot", zap.Error(err))
		}
		ix = loaded
	} else {
		ix = cluster.NewIndex(cluster.Options{})
		ix.Load(cluster.GenerateArtworksAround(*points, *lng, *lat, 8000, 42))
	}

	vp := viewport.Viewport{Longitude: *lng, Latitude: *lat, Zoom: *zoom, Width: *width, Height: *height}
	clustered := ix.ClusterAt(vp)
	log.Info("clustered viewport",
		zap.Int("input", ix.Len()), zap.Int("features", len(clustered)))

	opts := []overlay.Option{overlay.WithLogger(log)}
	if src := loadFont(*font, log); src != nil {
		defer src.Close()
		opts = append(opts, overlay.WithFontSource(src))
	}

	layer := overlay.NewLayer(*width, *height, opts...)
	defer layer.Close()

	bridge := viewport.NewBridge(staticEngine{vp: vp}, layer)
	defer bridge.Detach()

	colors := feature.DefaultColors
	layer.Update(clustered, atlas.Build(colors.Categories(), colors, atlas.DefaultCellSize), true)

	if err := layer.SavePNG(*out); err != nil {
		log.Fatal("failed to write PNG", zap.Error(err))
	}
	log.Info("wrote overlay snapshot", zap.String("path", *out))
}

func loadFont(path string, log *zap.Logger) *text.FontSource {
	candidates := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/usr/share/fonts/liberation/LiberationSans-Regular.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
	if path != "" {
		candidates = []string{path}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err != nil {
			continue
		}
		src, err := text.NewFontSourceFromFile(c)
		if err != nil {
			log.Warn("failed to load font", zap.String("path", c), zap.Error(err))
			continue
		}
		return src
	}
	log.Warn("no usable font found; cluster labels disabled")
	return nil
}
