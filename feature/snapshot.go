package feature

import "encoding/json"

// Snapshot returns a plain, fully-detached copy of the feature slice.
//
// The overlay renderer must never be handed data that something else can
// mutate mid-draw, so every update passes through this boundary first.
// Properties maps are deep-cloned through a JSON round trip; if a value
// does not survive that (channels, funcs, cyclic data from a misbehaving
// upstream), the feature falls back to a shallow copy sharing the original
// map rather than aborting the draw.
func Snapshot(features []Feature) []Feature {
	if features == nil {
		return nil
	}
	out := make([]Feature, len(features))
	for i, f := range features {
		out[i] = f
		if len(f.Members) > 0 {
			out[i].Members = append([]string(nil), f.Members...)
		}
		if len(f.Properties) > 0 {
			if props, err := cloneProperties(f.Properties); err == nil {
				out[i].Properties = props
			}
		}
	}
	return out
}

func cloneProperties(props map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	clone := make(map[string]interface{}, len(props))
	if err := json.Unmarshal(raw, &clone); err != nil {
		return nil, err
	}
	return clone, nil
}
