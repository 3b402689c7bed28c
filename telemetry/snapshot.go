package telemetry

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotFormat is returned for snapshots this build cannot decode.
var ErrSnapshotFormat = errors.New("telemetry: bad snapshot format")

// Snapshot is the portable save format of a session: raw float32 field
// contents, little-endian and base64 encoded.
type Snapshot struct {
	Version int   `json:"version"`
	Frame   int64 `json:"frame"`
	Seed    int64 `json:"seed"`

	Width  int `json:"width"`
	Height int `json:"height"`

	Fields []FieldData `json:"fields"`
}

// FieldData holds one field's contents.
type FieldData struct {
	Name       string `json:"name"`
	Channels   int    `json:"channels"`
	Generation uint64 `json:"generation"`
	Data       string `json:"data"`
}

// EncodeField packs a readback snapshot.
func EncodeField(s field.Snapshot) FieldData {
	raw := make([]byte, 4*len(s.Data))
	for i, v := range s.Data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return FieldData{
		Name:       s.Name,
		Channels:   s.Shape.Channels,
		Generation: s.Generation,
		Data:       base64.StdEncoding.EncodeToString(raw),
	}
}

// Values decodes the field contents. want is the expected value count.
func (fd FieldData) Values(want int) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(fd.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: field %s: %w", ErrSnapshotFormat, fd.Name, err)
	}
	if len(raw) != 4*want {
		return nil, fmt.Errorf("%w: field %s has %d bytes, want %d", ErrSnapshotFormat, fd.Name, len(raw), 4*want)
	}
	out := make([]float32, want)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}

// Field looks up a field by name.
func (s *Snapshot) Field(name string) (FieldData, bool) {
	for _, fd := range s.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return FieldData{}, false
}

// SaveSnapshot writes a snapshot to dir and returns the file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Frame))

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrSnapshotFormat, snapshot.Version)
	}
	return &snapshot, nil
}
