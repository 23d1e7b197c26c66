package recognition

import (
	"encoding/json"
	"log"
	"sort"
)

// maxScanDepth bounds the fallback search through unrecognized stored shapes.
const maxScanDepth = 3

// Normalize extracts every usable descriptor from one student's raw stored
// face data. The data was written by several historical registration code
// paths, so the shape is unknown a priori; extraction is attempted in
// priority order:
//
//  1. the current nested-group format {"descriptors": [[<128 floats>, ...], ...]},
//  2. a single legacy flat array of 128 floats,
//  3. a bounded recursive scan through nested arrays/objects collecting every
//     array of exactly 128 numbers.
//
// Normalize never fails: malformed, partial, or empty data yields fewer or
// zero descriptors, not an error.
func Normalize(raw interface{}) []Descriptor {
	if raw == nil {
		return nil
	}

	if m, ok := raw.(map[string]interface{}); ok {
		if groups, ok := m["descriptors"].([]interface{}); ok {
			var out []Descriptor
			for _, group := range groups {
				members, ok := group.([]interface{})
				if !ok {
					continue
				}
				for _, member := range members {
					if d, ok := asDescriptor(member); ok {
						out = append(out, d)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	if d, ok := asDescriptor(raw); ok {
		return []Descriptor{d}
	}

	return scan(raw, maxScanDepth)
}

// NormalizeJSON decodes stored face data and normalizes it. Undecodable data
// is logged and treated as empty.
func NormalizeJSON(data []byte) []Descriptor {
	if len(data) == 0 {
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("recognition: skipping undecodable stored face data: %v", err)
		return nil
	}
	return Normalize(raw)
}

// scan walks arrays and objects up to depth levels, collecting every valid
// descriptor it encounters. Object keys are visited in sorted order so the
// result is deterministic.
func scan(v interface{}, depth int) []Descriptor {
	if depth <= 0 {
		return nil
	}
	switch t := v.(type) {
	case []interface{}:
		if d, ok := asDescriptor(t); ok {
			return []Descriptor{d}
		}
		var out []Descriptor
		for _, e := range t {
			out = append(out, scan(e, depth-1)...)
		}
		return out
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []Descriptor
		for _, k := range keys {
			out = append(out, scan(t[k], depth-1)...)
		}
		return out
	}
	return nil
}
