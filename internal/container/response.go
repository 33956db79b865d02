package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/sosl/pycyc/internal/axes"
)

// Binary container format, little-endian throughout:
//
//	magic   [4]byte "DYNR"
//	version uint32
//	nchan   uint32
//	ntime   uint32
//	npol    uint32
//	minfreq float64 (MHz)
//	maxfreq float64 (MHz)
//	payload ntime*nchan complex128, row-major by time
//
// Complex values are stored as raw IEEE-754 pairs, so a save/load cycle
// is bit-exact.

var magic = [4]byte{'D', 'Y', 'N', 'R'}

const formatVersion = 1

// maxCells caps the payload size accepted when loading, to keep a
// corrupt or hostile header from driving a huge allocation.
const maxCells = 1 << 26

// DynamicResponse carries a simulated frequency-time dynamic spectrum
// together with the frequency bounds and shape metadata a downstream
// reader needs to interpret it.
type DynamicResponse struct {
	MinFrequency float64 // centre frequency of the lowest channel, MHz
	MaxFrequency float64 // centre frequency of the highest channel, MHz
	NChan        int
	NTime        int
	NPol         int
	Data         []complex128 // row-major by time, length NTime*NChan
}

// NewDynamicResponse builds the output container for a simulation run.
// The frequency bounds are the centre frequencies of the edge channels:
// centre_frequency -/+ 0.5*(bandwidth - channel_bandwidth). Only one
// polarization is ever populated.
func NewDynamicResponse(geom axes.Geometry, payload []complex128) (*DynamicResponse, error) {
	if want := geom.NTime * geom.NChan; len(payload) != want {
		return nil, fmt.Errorf("container: payload length %d, want %d", len(payload), want)
	}

	halfSpan := 0.5 * (geom.Bandwidth - geom.ChannelBandwidth())
	return &DynamicResponse{
		MinFrequency: geom.CentreFrequency - halfSpan,
		MaxFrequency: geom.CentreFrequency + halfSpan,
		NChan:        geom.NChan,
		NTime:        geom.NTime,
		NPol:         1,
		Data:         payload,
	}, nil
}

// ChannelFrequencies returns the centre frequency of every channel in
// MHz, evenly spaced from MinFrequency to MaxFrequency.
func (r *DynamicResponse) ChannelFrequencies() []float64 {
	f := make([]float64, r.NChan)
	if r.NChan == 1 {
		f[0] = r.MinFrequency
		return f
	}
	return floats.Span(f, r.MinFrequency, r.MaxFrequency)
}

// At returns the spectrum cell at (itime, ichan).
func (r *DynamicResponse) At(itime, ichan int) complex128 {
	return r.Data[itime*r.NChan+ichan]
}

// Equal reports element-wise exact equality of metadata and payload.
func (r *DynamicResponse) Equal(o *DynamicResponse) bool {
	if o == nil ||
		r.MinFrequency != o.MinFrequency ||
		r.MaxFrequency != o.MaxFrequency ||
		r.NChan != o.NChan ||
		r.NTime != o.NTime ||
		r.NPol != o.NPol ||
		len(r.Data) != len(o.Data) {
		return false
	}
	for i := range r.Data {
		if r.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// WriteTo serializes the container to w in the binary format above.
func (r *DynamicResponse) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	buf.Write(magic[:])
	for _, v := range []uint32{formatVersion, uint32(r.NChan), uint32(r.NTime), uint32(r.NPol)} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return 0, fmt.Errorf("container: encoding header: %w", err)
		}
	}
	for _, v := range []float64{r.MinFrequency, r.MaxFrequency} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return 0, fmt.Errorf("container: encoding header: %w", err)
		}
	}
	if err := binary.Write(&buf, binary.LittleEndian, r.Data); err != nil {
		return 0, fmt.Errorf("container: encoding payload: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom deserializes a container written by WriteTo.
func (r *DynamicResponse) ReadFrom(rd io.Reader) (int64, error) {
	counting := &countingReader{r: rd}

	var m [4]byte
	if _, err := io.ReadFull(counting, m[:]); err != nil {
		return counting.n, fmt.Errorf("container: reading magic: %w", err)
	}
	if m != magic {
		return counting.n, fmt.Errorf("container: bad magic %q", m[:])
	}

	var version, nchan, ntime, npol uint32
	for _, dst := range []*uint32{&version, &nchan, &ntime, &npol} {
		if err := binary.Read(counting, binary.LittleEndian, dst); err != nil {
			return counting.n, fmt.Errorf("container: reading header: %w", err)
		}
	}
	if version != formatVersion {
		return counting.n, fmt.Errorf("container: unsupported format version %d", version)
	}
	if nchan == 0 || ntime == 0 || uint64(nchan)*uint64(ntime) > maxCells {
		return counting.n, fmt.Errorf("container: implausible shape %dx%d", ntime, nchan)
	}

	var minFreq, maxFreq float64
	for _, dst := range []*float64{&minFreq, &maxFreq} {
		if err := binary.Read(counting, binary.LittleEndian, dst); err != nil {
			return counting.n, fmt.Errorf("container: reading header: %w", err)
		}
	}

	data := make([]complex128, int(nchan)*int(ntime))
	if err := binary.Read(counting, binary.LittleEndian, data); err != nil {
		return counting.n, fmt.Errorf("container: reading payload: %w", err)
	}

	r.MinFrequency = minFreq
	r.MaxFrequency = maxFreq
	r.NChan = int(nchan)
	r.NTime = int(ntime)
	r.NPol = int(npol)
	r.Data = data
	return counting.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Save writes the container to a named file.
func (r *DynamicResponse) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("container: creating %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if _, err := r.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("container: writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("container: flushing %s: %w", path, err)
	}
	return f.Close()
}

// Load reads a container from a named file.
func Load(path string) (*DynamicResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("container: opening %s: %w", path, err)
	}
	defer f.Close()

	r := &DynamicResponse{}
	if _, err := r.ReadFrom(bufio.NewReader(f)); err != nil {
		return nil, err
	}
	return r, nil
}
