package recognition

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonVector(val float64) string {
	out := "["
	for i := 0; i < DescriptorLength; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%g", val)
	}
	return out + "]"
}

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestNormalizeModernFormat(t *testing.T) {
	raw := decode(t, `{"descriptors": [[`+jsonVector(0.1)+`,`+jsonVector(0.2)+`], [`+jsonVector(0.3)+`]]}`)

	got := Normalize(raw)
	require.Len(t, got, 3)
	assert.InDelta(t, 0.1, got[0][0], 1e-12)
	assert.InDelta(t, 0.2, got[1][0], 1e-12)
	assert.InDelta(t, 0.3, got[2][0], 1e-12)
}

func TestNormalizeLegacyFlat(t *testing.T) {
	got := Normalize(decode(t, jsonVector(0.5)))
	require.Len(t, got, 1)
	assert.True(t, got[0].Valid())
}

func TestNormalizeLegacyUnitList(t *testing.T) {
	// array of stored units, each itself a 128-float array
	got := Normalize(decode(t, `[`+jsonVector(0.1)+`,`+jsonVector(0.2)+`]`))
	require.Len(t, got, 2)
}

func TestNormalizeEmbeddedInObject(t *testing.T) {
	raw := decode(t, `{"meta": {"updated": 123}, "vector": `+jsonVector(0.7)+`}`)
	got := Normalize(raw)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.7, got[0][0], 1e-12)
}

func TestNormalizeNeverErrors(t *testing.T) {
	inputs := []interface{}{
		nil,
		decode(t, `[]`),
		decode(t, `{}`),
		decode(t, `{"descriptors": "not an array"}`),
		decode(t, `{"descriptors": [[]]}`),
		decode(t, `[1, 2, 3]`),                // wrong length
		decode(t, `["a", "b"]`),               // non-numeric
		decode(t, `{"a": {"b": {"c": {"d": `+jsonVector(0.1)+`}}}}`), // beyond scan depth
		"garbage string",
		42.0,
	}
	for i, in := range inputs {
		assert.Empty(t, Normalize(in), "input %d", i)
	}
}

func TestNormalizeSkipsCorruptEntries(t *testing.T) {
	// one valid descriptor alongside a wrong-length one and a non-numeric one
	raw := decode(t, `{"descriptors": [[`+jsonVector(0.4)+`, [1,2,3], ["x"]]]}`)
	got := Normalize(raw)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.4, got[0][0], 1e-12)
}

func TestNormalizeJSON(t *testing.T) {
	assert.Empty(t, NormalizeJSON(nil))
	assert.Empty(t, NormalizeJSON([]byte(`{invalid`)))

	got := NormalizeJSON([]byte(`{"descriptors": [[` + jsonVector(0.9) + `]]}`))
	require.Len(t, got, 1)
}
