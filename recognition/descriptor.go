// Package recognition implements the face-matching core: descriptor
// normalization, similarity scoring, candidate ranking, the attendance
// decision policy, and the continuous recognition loop. It owns no storage;
// the detector, roster, and attendance log are injected collaborators.
package recognition

import "math"

// DescriptorLength is the dimensionality of the embeddings produced by the
// external face model.
const DescriptorLength = 128

// Descriptor is a validated 128-dimensional face embedding vector. Instances
// produced by this package are immutable by convention.
type Descriptor []float64

// Valid reports whether d has exactly DescriptorLength finite elements.
func (d Descriptor) Valid() bool {
	if len(d) != DescriptorLength {
		return false
	}
	for _, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// asDescriptor converts a decoded JSON value into a Descriptor if it is an
// array of exactly DescriptorLength finite numbers.
func asDescriptor(v interface{}) (Descriptor, bool) {
	switch arr := v.(type) {
	case []float64:
		d := Descriptor(arr)
		if d.Valid() {
			return d, true
		}
	case []interface{}:
		if len(arr) != DescriptorLength {
			return nil, false
		}
		d := make(Descriptor, DescriptorLength)
		for i, e := range arr {
			f, ok := e.(float64)
			if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, false
			}
			d[i] = f
		}
		return d, true
	}
	return nil, false
}
