package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniform(val float64) Descriptor {
	d := make(Descriptor, DescriptorLength)
	for i := range d {
		d[i] = val
	}
	return d
}

// offsetBy returns a copy of d with the first element shifted so the
// euclidean distance to d is exactly dist.
func offsetBy(d Descriptor, dist float64) Descriptor {
	out := make(Descriptor, len(d))
	copy(out, d)
	out[0] += dist
	return out
}

func TestSimilarityIdentity(t *testing.T) {
	a := uniform(0.25)
	assert.Equal(t, 1.0, Similarity(a, a))
}

func TestSimilaritySymmetry(t *testing.T) {
	a := uniform(0.1)
	b := offsetBy(uniform(0.3), 0.4)
	assert.Equal(t, Similarity(a, b), Similarity(b, a))
}

func TestSimilarityDistanceMapping(t *testing.T) {
	a := uniform(0)
	assert.InDelta(t, 0.75, Similarity(a, offsetBy(a, 0.25)), 1e-9)
	assert.InDelta(t, 0.4, Similarity(a, offsetBy(a, 0.6)), 1e-9)
}

func TestSimilarityFlooredAtZero(t *testing.T) {
	a := uniform(0)
	// distance well above 1 must not go negative
	assert.Equal(t, 0.0, Similarity(a, offsetBy(a, 5)))
	assert.Equal(t, 0.0, Similarity(a, offsetBy(a, 1)))
}

func TestSimilarityLengthMismatch(t *testing.T) {
	assert.Equal(t, 0.0, Similarity(uniform(0), Descriptor{1, 2, 3}))
	assert.Equal(t, 0.0, Similarity(nil, nil))
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]Descriptor{
		{uniform(0.5), uniform(-0.5)},
		{uniform(1), uniform(1)},
		{uniform(0), offsetBy(uniform(0), 0.99)},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}
