package container

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sosl/pycyc/internal/axes"
)

func testGeometry() axes.Geometry {
	return axes.Geometry{
		NChan:            8,
		NTime:            16,
		Bandwidth:        64.0,
		CentreFrequency:  1400.0,
		SamplingInterval: 15.0,
	}
}

func testResponse(t *testing.T) *DynamicResponse {
	t.Helper()
	geom := testGeometry()

	payload := make([]complex128, geom.NTime*geom.NChan)
	for i := range payload {
		payload[i] = complex(math.Sqrt(float64(i)+0.25), -1.0/(float64(i)+3.0))
	}

	r, err := NewDynamicResponse(geom, payload)
	require.NoError(t, err)
	return r
}

// Frequency bounds are the edge-channel centre frequencies:
// cfreq -/+ 0.5*(bw - chanbw).
func TestNewDynamicResponseFrequencyBounds(t *testing.T) {
	r := testResponse(t)

	assert.InDelta(t, 1400.0-0.5*(64.0-8.0), r.MinFrequency, 1e-12)
	assert.InDelta(t, 1400.0+0.5*(64.0-8.0), r.MaxFrequency, 1e-12)
	assert.Equal(t, 1, r.NPol)
}

func TestNewDynamicResponsePayloadShape(t *testing.T) {
	_, err := NewDynamicResponse(testGeometry(), make([]complex128, 7))
	assert.Error(t, err)
}

func TestChannelFrequencies(t *testing.T) {
	r := testResponse(t)
	f := r.ChannelFrequencies()

	require.Len(t, f, 8)
	assert.InDelta(t, r.MinFrequency, f[0], 1e-12)
	assert.InDelta(t, r.MaxFrequency, f[7], 1e-12)

	// Evenly spaced by one channel bandwidth.
	for i := 1; i < len(f); i++ {
		assert.InDelta(t, 8.0, f[i]-f[i-1], 1e-9)
	}
}

// Serialization stores raw IEEE-754 bits, so a round trip through the
// binary format recovers every element exactly.
func TestRoundTripBuffer(t *testing.T) {
	r := testResponse(t)

	var buf bytes.Buffer
	n, err := r.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	var got DynamicResponse
	m, err := got.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, m)

	require.True(t, r.Equal(&got), "round trip not bit-exact")
	for i := range r.Data {
		assert.Equal(t, r.Data[i], got.Data[i], "element %d", i)
	}
}

func TestRoundTripFile(t *testing.T) {
	r := testResponse(t)
	path := filepath.Join(t.TempDir(), "resp.dat")

	require.NoError(t, r.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.True(t, r.Equal(got), "file round trip not bit-exact")
}

func TestReadFromRejectsCorruptHeaders(t *testing.T) {
	r := testResponse(t)

	var buf bytes.Buffer
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	good := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		b := append([]byte(nil), good...)
		b[0] = 'X'
		var got DynamicResponse
		_, err := got.ReadFrom(bytes.NewReader(b))
		assert.Error(t, err)
	})

	t.Run("unsupported version", func(t *testing.T) {
		b := append([]byte(nil), good...)
		b[4] = 0xFF
		var got DynamicResponse
		_, err := got.ReadFrom(bytes.NewReader(b))
		assert.Error(t, err)
	})

	t.Run("implausible shape", func(t *testing.T) {
		b := append([]byte(nil), good...)
		// nchan field at offset 8.
		b[8], b[9], b[10], b[11] = 0xFF, 0xFF, 0xFF, 0xFF
		var got DynamicResponse
		_, err := got.ReadFrom(bytes.NewReader(b))
		assert.Error(t, err)
	})

	t.Run("truncated payload", func(t *testing.T) {
		var got DynamicResponse
		_, err := got.ReadFrom(bytes.NewReader(good[:len(good)-8]))
		assert.Error(t, err)
	})
}

func TestEqual(t *testing.T) {
	r := testResponse(t)

	other := testResponse(t)
	assert.True(t, r.Equal(other))

	other.Data[3] += complex(0, 1e-300)
	assert.False(t, r.Equal(other))

	assert.False(t, r.Equal(nil))
}
