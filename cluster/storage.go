package cluster

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/funvill/cultural-archiver-sub005/feature"
)

// snapshotVersion guards against reading snapshots written by an
// incompatible layout.
const snapshotVersion uint32 = 1

// SaveCompressed writes the indexed feature set to a zstd-compressed
// binary snapshot. The KD-tree is not persisted; it is cheap to rebuild
// relative to reading the file.
func (ix *Index) SaveCompressed(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := writeSnapshot(enc, ix.opts, ix.features); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	return nil
}

// LoadCompressed reads a snapshot written by SaveCompressed and returns a
// ready-to-query index.
func LoadCompressed(filename string) (*Index, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(bufio.NewReaderSize(file, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	opts, features, err := readSnapshot(dec)
	if err != nil {
		return nil, err
	}

	ix := NewIndex(opts)
	ix.Load(features)
	return ix, nil
}

func writeSnapshot(w io.Writer, opts Options, features []feature.Feature) error {
	binary.Write(w, binary.LittleEndian, snapshotVersion)
	binary.Write(w, binary.LittleEndian, uint32(len(features)))

	binary.Write(w, binary.LittleEndian, int32(opts.MinZoom))
	binary.Write(w, binary.LittleEndian, int32(opts.MaxZoom))
	binary.Write(w, binary.LittleEndian, int32(opts.MinPoints))
	binary.Write(w, binary.LittleEndian, opts.Radius)
	binary.Write(w, binary.LittleEndian, int32(opts.NodeSize))
	binary.Write(w, binary.LittleEndian, int32(opts.TileSize))

	for _, f := range features {
		if err := writeString(w, f.ID); err != nil {
			return err
		}
		binary.Write(w, binary.LittleEndian, f.Longitude)
		binary.Write(w, binary.LittleEndian, f.Latitude)
		if err := writeString(w, f.Category); err != nil {
			return err
		}

		props := []byte(nil)
		if len(f.Properties) > 0 {
			raw, err := json.Marshal(f.Properties)
			if err != nil {
				return fmt.Errorf("failed to marshal properties for %q: %w", f.ID, err)
			}
			props = raw
		}
		binary.Write(w, binary.LittleEndian, uint32(len(props)))
		if len(props) > 0 {
			if _, err := w.Write(props); err != nil {
				return err
			}
		}
	}
	return nil
}

func readSnapshot(r io.Reader) (Options, []feature.Feature, error) {
	var version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Options{}, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if version != snapshotVersion {
		return Options{}, nil, fmt.Errorf("unsupported snapshot version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Options{}, nil, fmt.Errorf("failed to read feature count: %w", err)
	}

	var opts Options
	var minZoom, maxZoom, minPoints, nodeSize, tileSize int32
	binary.Read(r, binary.LittleEndian, &minZoom)
	binary.Read(r, binary.LittleEndian, &maxZoom)
	binary.Read(r, binary.LittleEndian, &minPoints)
	binary.Read(r, binary.LittleEndian, &opts.Radius)
	binary.Read(r, binary.LittleEndian, &nodeSize)
	binary.Read(r, binary.LittleEndian, &tileSize)
	opts.MinZoom = int(minZoom)
	opts.MaxZoom = int(maxZoom)
	opts.MinPoints = int(minPoints)
	opts.NodeSize = int(nodeSize)
	opts.TileSize = int(tileSize)

	features := make([]feature.Feature, 0, count)
	for i := uint32(0); i < count; i++ {
		var f feature.Feature
		var err error
		if f.ID, err = readString(r); err != nil {
			return Options{}, nil, fmt.Errorf("failed to read feature %d: %w", i, err)
		}
		binary.Read(r, binary.LittleEndian, &f.Longitude)
		binary.Read(r, binary.LittleEndian, &f.Latitude)
		if f.Category, err = readString(r); err != nil {
			return Options{}, nil, fmt.Errorf("failed to read feature %d: %w", i, err)
		}

		var propLen uint32
		if err := binary.Read(r, binary.LittleEndian, &propLen); err != nil {
			return Options{}, nil, fmt.Errorf("failed to read feature %d: %w", i, err)
		}
		if propLen > 0 {
			raw := make([]byte, propLen)
			if _, err := io.ReadFull(r, raw); err != nil {
				return Options{}, nil, fmt.Errorf("failed to read feature %d: %w", i, err)
			}
			if err := json.Unmarshal(raw, &f.Properties); err != nil {
				return Options{}, nil, fmt.Errorf("failed to unmarshal properties for %q: %w", f.ID, err)
			}
		}
		features = append(features, f)
	}
	return opts, features, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
