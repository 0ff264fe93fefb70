package cluster

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/funvill/cultural-archiver-sub005/feature"
)

// The mmap variant trades compression for a read path with no buffer
// copies, which matters when the server hot-swaps large city-wide feature
// sets. Layout matches writeSnapshot minus the zstd framing.

// MMapWriter writes fixed-layout values into a memory-mapped region.
type MMapWriter struct {
	data   mmap.MMap
	offset int
}

func NewMMapWriter(data mmap.MMap) *MMapWriter {
	return &MMapWriter{data: data}
}

func (w *MMapWriter) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.data[w.offset:], v)
	w.offset += 4
}

func (w *MMapWriter) WriteFloat64(v float64) {
	binary.LittleEndian.PutUint64(w.data[w.offset:], math.Float64bits(v))
	w.offset += 8
}

func (w *MMapWriter) WriteBytes(b []byte) {
	copy(w.data[w.offset:], b)
	w.offset += len(b)
}

func (w *MMapWriter) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.WriteBytes([]byte(s))
}

// MMapReader reads fixed-layout values from a memory-mapped region.
type MMapReader struct {
	data   mmap.MMap
	offset int
}

func NewMMapReader(data mmap.MMap) *MMapReader {
	return &MMapReader{data: data}
}

func (r *MMapReader) ReadUint32() uint32 {
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v
}

func (r *MMapReader) ReadFloat64() float64 {
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return math.Float64frombits(v)
}

func (r *MMapReader) ReadBytes(n int) []byte {
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b
}

func (r *MMapReader) ReadString() string {
	n := int(r.ReadUint32())
	return string(r.ReadBytes(n))
}

// calculateSize returns the exact on-disk size of the uncompressed layout.
func (ix *Index) calculateSize() (int64, error) {
	size := int64(4 + 4)  // version + count
	size += 3*4 + 8 + 2*4 // options
	for _, f := range ix.features {
		size += 4 + int64(len(f.ID))
		size += 16 // lng + lat
		size += 4 + int64(len(f.Category))
		size += 4
		if len(f.Properties) > 0 {
			raw, err := json.Marshal(f.Properties)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal properties for %q: %w", f.ID, err)
			}
			size += int64(len(raw))
		}
	}
	return size, nil
}

// SaveMMap writes the feature set through a memory-mapped file.
func (ix *Index) SaveMMap(filename string) error {
	size, err := ix.calculateSize()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := file.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}

	mmapData, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to mmap file: %w", err)
	}
	defer mmapData.Unmap()

	w := NewMMapWriter(mmapData)
	w.WriteUint32(snapshotVersion)
	w.WriteUint32(uint32(len(ix.features)))

	w.WriteUint32(uint32(ix.opts.MinZoom))
	w.WriteUint32(uint32(ix.opts.MaxZoom))
	w.WriteUint32(uint32(ix.opts.MinPoints))
	w.WriteFloat64(ix.opts.Radius)
	w.WriteUint32(uint32(ix.opts.NodeSize))
	w.WriteUint32(uint32(ix.opts.TileSize))

	for _, f := range ix.features {
		w.WriteString(f.ID)
		w.WriteFloat64(f.Longitude)
		w.WriteFloat64(f.Latitude)
		w.WriteString(f.Category)
		if len(f.Properties) > 0 {
			raw, err := json.Marshal(f.Properties)
			if err != nil {
				return fmt.Errorf("failed to marshal properties for %q: %w", f.ID, err)
			}
			w.WriteUint32(uint32(len(raw)))
			w.WriteBytes(raw)
		} else {
			w.WriteUint32(0)
		}
	}

	return mmapData.Flush()
}

// LoadMMap reads a file written by SaveMMap and returns a ready index.
func LoadMMap(filename string) (*Index, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	mmapData, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	defer mmapData.Unmap()

	r := NewMMapReader(mmapData)
	if v := r.ReadUint32(); v != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", v)
	}
	count := r.ReadUint32()

	var opts Options
	opts.MinZoom = int(r.ReadUint32())
	opts.MaxZoom = int(r.ReadUint32())
	opts.MinPoints = int(r.ReadUint32())
	opts.Radius = r.ReadFloat64()
	opts.NodeSize = int(r.ReadUint32())
	opts.TileSize = int(r.ReadUint32())

	features := make([]feature.Feature, 0, count)
	for i := uint32(0); i < count; i++ {
		var f feature.Feature
		f.ID = r.ReadString()
		f.Longitude = r.ReadFloat64()
		f.Latitude = r.ReadFloat64()
		f.Category = r.ReadString()
		if propLen := r.ReadUint32(); propLen > 0 {
			if err := json.Unmarshal(r.ReadBytes(int(propLen)), &f.Properties); err != nil {
				return nil, fmt.Errorf("failed to unmarshal properties for %q: %w", f.ID, err)
			}
		}
		features = append(features, f)
	}

	ix := NewIndex(opts)
	ix.Load(features)
	return ix, nil
}
