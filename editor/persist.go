package editor

import (
	"errors"
	"fmt"

	"github.com/peterberweiler/ITA-Project-sub000/field"
	"github.com/peterberweiler/ITA-Project-sub000/telemetry"
	"github.com/peterberweiler/ITA-Project-sub000/terrain"
)

// ErrIncompatibleSnapshot is returned when a snapshot does not fit the session layout.
var ErrIncompatibleSnapshot = errors.New("editor: incompatible snapshot")

// Capture packs every double-buffered field into a snapshot.
func (s *Session) Capture() (*telemetry.Snapshot, error) {
	snap := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Frame:   s.frame,
		Seed:    s.cfg.Noise.Seed,
		Width:   s.cfg.Field.Width,
		Height:  s.cfg.Field.Height,
	}
	for _, name := range s.set.Names() {
		if s.set.IsStatic(name) {
			continue
		}
		fs, err := s.set.Snapshot(name)
		if err != nil {
			return nil, err
		}
		snap.Fields = append(snap.Fields, telemetry.EncodeField(fs))
	}
	return snap, nil
}

// Save writes a snapshot of the session into dir and returns its path.
func (s *Session) Save(dir string) (string, error) {
	snap, err := s.Capture()
	if err != nil {
		return "", err
	}
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		return "", err
	}
	s.log.Info("session saved", "path", path, "frame", s.frame)
	return path, nil
}

// Restore queues a fill of every field in snap. Fields absent from the
// snapshot keep their values. The restored contents become current with
// the next Update's swaps, after any invocations already queued.
func (s *Session) Restore(snap *telemetry.Snapshot) error {
	if snap.Width != s.cfg.Field.Width || snap.Height != s.cfg.Field.Height {
		return fmt.Errorf("%w: %dx%d, session is %dx%d", ErrIncompatibleSnapshot,
			snap.Width, snap.Height, s.cfg.Field.Width, s.cfg.Field.Height)
	}

	// Decode everything before queueing anything.
	fills := make([]terrain.Fill, 0, len(snap.Fields))
	seen := make(map[string]bool, len(snap.Fields))
	for _, fd := range snap.Fields {
		b, ok := s.set.Buffer(fd.Name)
		if !ok {
			return fmt.Errorf("%w: %w: %q", ErrIncompatibleSnapshot, field.ErrUnknownField, fd.Name)
		}
		if seen[fd.Name] {
			return fmt.Errorf("%w: %s stored twice", ErrIncompatibleSnapshot, fd.Name)
		}
		seen[fd.Name] = true
		if fd.Channels != b.Shape().Channels {
			return fmt.Errorf("%w: %s has %d channels, want %d", ErrIncompatibleSnapshot, fd.Name, fd.Channels, b.Shape().Channels)
		}
		values, err := fd.Values(b.Shape().Len())
		if err != nil {
			return err
		}
		fills = append(fills, terrain.Fill{Field: fd.Name, Values: values})
	}

	if len(fills) > 0 {
		if err := s.sched.Enqueue(terrain.NewFillPass(fills...)); err != nil {
			return err
		}
	}
	s.frame = snap.Frame
	s.log.Info("session restore queued", "frame", snap.Frame, "fields", len(fills))
	return nil
}

// Load reads a snapshot file and restores it.
func (s *Session) Load(path string) error {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	return s.Restore(snap)
}

// ExportHeight writes the current height field as a grayscale PNG with
// 8 or 16 bits per texel.
func (s *Session) ExportHeight(path string, bits int) error {
	snap, err := s.set.Snapshot(field.Height)
	if err != nil {
		return err
	}
	switch bits {
	case 8:
		return telemetry.ExportPNG8(snap, path)
	case 16:
		return telemetry.ExportPNG16(snap, path)
	default:
		return fmt.Errorf("editor: unsupported png depth %d", bits)
	}
}
