// Command profiler measures viewport clustering over synthetic artwork
// sets and optionally captures pprof profiles.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/funvill/cultural-archiver-sub005/cluster"
	"github.com/funvill/cultural-archiver-sub005/viewport"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to file")
	numPoints  = flag.Int("points", 100000, "number of artworks to generate")
	zoomLevel  = flag.Float64("zoom", 8, "zoom level to profile")
	testall    = flag.Bool("testall", false, "profile every zoom level from 2 to 16")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("failed to create cpu profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("failed to start cpu profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	bounds := cluster.Bounds{MinX: -125, MinY: 25, MaxX: -67, MaxY: 49}
	artworks := cluster.GenerateArtworks(*numPoints, bounds, 42)

	ix := cluster.NewIndex(cluster.Options{})
	loadStart := time.Now()
	ix.Load(artworks)
	fmt.Printf("Loaded %d artworks in %v\n", ix.Len(), time.Since(loadStart))

	zooms := []float64{*zoomLevel}
	if *testall {
		zooms = zooms[:0]
		for z := 2.0; z <= 16; z += 2 {
			zooms = append(zooms, z)
		}
	}

	for _, z := range zooms {
		vp := viewport.Viewport{
			Longitude: (bounds.MinX + bounds.MaxX) / 2,
			Latitude:  (bounds.MinY + bounds.MaxY) / 2,
			Zoom:      z,
			Width:     1920,
			Height:    1080,
		}
		start := time.Now()
		clustered := ix.ClusterAt(vp)
		fmt.Printf("zoom %4.1f: %6d features in %v\n", z, len(clustered), time.Since(start))
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("failed to create memory profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Printf("failed to write memory profile: %v\n", err)
			os.Exit(1)
		}
	}
}
