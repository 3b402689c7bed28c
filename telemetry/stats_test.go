package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterberweiler/ITA-Project-sub000/field"
)

func statsSet(t *testing.T) *field.Set {
	t.Helper()
	s := field.NewSet()
	h, err := s.AddBuffer(field.Height, field.Shape{W: 10, H: 10, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	h.Initialize(func(f *field.Field) {
		for i := range f.Values() {
			f.Values()[i] = float32(i)
		}
	})
	w, _ := s.AddBuffer(field.Water, field.Shape{W: 10, H: 10, Channels: 1})
	w.Initialize(func(f *field.Field) { f.Fill(0.5) })
	l0, _ := s.AddBuffer(field.Layers0, field.Shape{W: 10, H: 10, Channels: 4})
	l0.Initialize(func(f *field.Field) { f.Fill(1) })
	l1, _ := s.AddBuffer(field.Layers1, field.Shape{W: 10, H: 10, Channels: 4})
	l1.Initialize(func(f *field.Field) { f.Set(3, 3, 2, 0.25) })
	return s
}

func TestComputeFieldStats(t *testing.T) {
	s := statsSet(t)
	stats, err := ComputeFieldStats(s, 42)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Frame != 42 {
		t.Errorf("frame = %d", stats.Frame)
	}
	if stats.HeightTotal != 4950 || stats.HeightMean != 49.5 {
		t.Errorf("height total/mean = %v/%v, want 4950/49.5", stats.HeightTotal, stats.HeightMean)
	}
	if stats.HeightMin != 0 || stats.HeightMax != 99 {
		t.Errorf("height range [%v, %v]", stats.HeightMin, stats.HeightMax)
	}
	// Population std dev of 0..99.
	if math.Abs(stats.HeightStd-28.866) > 0.01 {
		t.Errorf("height std = %v", stats.HeightStd)
	}
	if stats.HeightP10 > stats.HeightP50 || stats.HeightP50 > stats.HeightP90 {
		t.Errorf("quantiles out of order: %v %v %v", stats.HeightP10, stats.HeightP50, stats.HeightP90)
	}
	if stats.WaterTotal != 50 || stats.WaterMax != 0.5 {
		t.Errorf("water total/max = %v/%v", stats.WaterTotal, stats.WaterMax)
	}
	if stats.LayerSumExcess != 0.25 {
		t.Errorf("layer excess = %v, want 0.25", stats.LayerSumExcess)
	}
}

func TestComputeFieldStatsMissingHeight(t *testing.T) {
	if _, err := ComputeFieldStats(field.NewSet(), 0); err == nil {
		t.Error("expected error without a height field")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	om.WriteFieldStats(FieldStats{Frame: 1, HeightMean: 2})
	om.WriteFieldStats(FieldStats{Frame: 2, HeightMean: 3})
	om.WritePerf(PerfStats{PhasePct: map[string]float64{}}, 2)
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "fields.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("fields.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "frame,height_total") {
		t.Errorf("unexpected header %q", lines[0])
	}

	perf, _ := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if !strings.Contains(string(perf), "water_flux_pct") {
		t.Error("perf.csv missing stage columns")
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	// Methods are nil-safe.
	if err := om.WriteFieldStats(FieldStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}
