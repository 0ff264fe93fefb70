package feature

import "math"

// Feature is a renderable map point: either a single artwork or a cluster
// of nearby artworks at the current zoom level.
type Feature struct {
	ID        string
	Longitude float64
	Latitude  float64

	// Category selects the marker color and icon (e.g. "sculpture",
	// "mural"). Unknown categories fall back to DefaultColor.
	Category string

	// Properties carries artwork metadata from the submission layer
	// (title, artist, photo URL). Opaque to the map core.
	Properties map[string]interface{}

	// Cluster marks an aggregate of PointCount artworks. A cluster's
	// coordinates are the centroid of its members.
	Cluster    bool
	PointCount uint32

	// Members lists the singleton IDs aggregated into this cluster,
	// sorted. Empty for singletons.
	Members []string

	// ClusterRadiusPixels, when non-zero, is used verbatim as the
	// screen-space radius instead of the derived one.
	ClusterRadiusPixels float64
}

// Count returns the number of artworks this feature represents.
func (f Feature) Count() uint32 {
	if f.PointCount > 0 {
		return f.PointCount
	}
	return 1
}

// Valid reports whether the feature has finite coordinates. Features
// arriving from the live submission feed can be partial; invalid ones are
// dropped during clustering rather than treated as errors.
func (f Feature) Valid() bool {
	return finite(f.Longitude) && finite(f.Latitude)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
