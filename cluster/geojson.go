package cluster

import (
	"github.com/funvill/cultural-archiver-sub005/feature"
	"github.com/funvill/cultural-archiver-sub005/viewport"
)

// GeoJSON output for the web map client.

type GeoFeature struct {
	Type       string                 `json:"type"`
	Geometry   Geometry               `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type FeatureCollection struct {
	Type     string       `json:"type"`
	Features []GeoFeature `json:"features"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ToGeoJSON clusters the viewport and converts the result to a GeoJSON
// FeatureCollection.
func (ix *Index) ToGeoJSON(vp viewport.Viewport) *FeatureCollection {
	clustered := ix.ClusterAt(vp)

	features := make([]GeoFeature, len(clustered))
	for i, f := range clustered {
		properties := map[string]interface{}{
			"id":          f.ID,
			"cluster":     f.Cluster,
			"point_count": f.Count(),
		}
		if f.Category != "" {
			properties["category"] = f.Category
		}
		for k, v := range f.Properties {
			properties[k] = v
		}

		features[i] = GeoFeature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{f.Longitude, f.Latitude},
			},
			Properties: properties,
		}
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// FromGeoJSON converts a FeatureCollection (e.g. an exported artwork dump)
// into plain features.
func FromGeoJSON(fc *FeatureCollection) []feature.Feature {
	features := make([]feature.Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		if gf.Geometry.Type != "Point" || len(gf.Geometry.Coordinates) < 2 {
			continue
		}
		f := feature.Feature{
			Longitude:  gf.Geometry.Coordinates[0],
			Latitude:   gf.Geometry.Coordinates[1],
			Properties: map[string]interface{}{},
		}
		for k, v := range gf.Properties {
			switch k {
			case "id":
				if s, ok := v.(string); ok {
					f.ID = s
				}
			case "category":
				if s, ok := v.(string); ok {
					f.Category = s
				}
			case "cluster", "point_count":
				// server-derived, never round-tripped
			default:
				f.Properties[k] = v
			}
		}
		features = append(features, f)
	}
	return features
}
