package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkClampedCells   BookmarkType = "clamped_cells"
	BookmarkReliefCollapse BookmarkType = "relief_collapse"
	BookmarkWaterSpike     BookmarkType = "water_spike"
	BookmarkSettled        BookmarkType = "settled"
)

// Bookmark marks a window worth looking at after a long run.
type Bookmark struct {
	Type        BookmarkType
	Frame       int64
	Description string
}

// Log writes the bookmark to l.
func (b Bookmark) Log(l *slog.Logger) {
	l.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector watches window statistics for notable changes.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []FieldStats
	historySize int
	historyIdx  int
	historyFull bool

	lastClamped   uint64
	reliefPeak    float64
	settledStreak int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // settle detection looks at four windows
	}
	return &BookmarkDetector{
		history:     make([]FieldStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats FieldStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkClamped(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkReliefCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkWaterSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSettled(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	if r := relief(stats); r > bd.reliefPeak {
		bd.reliefPeak = r
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats FieldStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []FieldStats {
	var ordered []FieldStats
	if bd.historyFull {
		ordered = append(ordered, bd.history[bd.historyIdx:]...)
	}
	ordered = append(ordered, bd.history[:bd.historyIdx]...)
	if len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

func relief(s FieldStats) float64 { return s.HeightMax - s.HeightMin }

func (bd *BookmarkDetector) checkClamped(stats FieldStats) *Bookmark {
	if stats.ClampedCells <= bd.lastClamped {
		bd.lastClamped = stats.ClampedCells
		return nil
	}
	added := stats.ClampedCells - bd.lastClamped
	bd.lastClamped = stats.ClampedCells
	return &Bookmark{
		Type:        BookmarkClampedCells,
		Frame:       stats.Frame,
		Description: fmt.Sprintf("%d non-finite cells clamped since last window (%d total)", added, stats.ClampedCells),
	}
}

func (bd *BookmarkDetector) checkReliefCollapse(stats FieldStats) *Bookmark {
	if bd.reliefPeak <= 0 {
		return nil
	}
	r := relief(stats)
	drop := 1 - r/bd.reliefPeak
	if drop <= 0.30 {
		return nil
	}
	oldPeak := bd.reliefPeak
	bd.reliefPeak = r
	return &Bookmark{
		Type:        BookmarkReliefCollapse,
		Frame:       stats.Frame,
		Description: fmt.Sprintf("Relief dropped %.0f%% from %.2f to %.2f", drop*100, oldPeak, r),
	}
}

func (bd *BookmarkDetector) checkWaterSpike(stats FieldStats) *Bookmark {
	history := bd.recent(bd.historySize)
	if len(history) < 3 {
		return nil
	}
	var total float64
	for _, h := range history {
		total += h.WaterTotal
	}
	avg := total / float64(len(history))
	if avg <= 0 || stats.WaterTotal <= avg*2 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkWaterSpike,
		Frame:       stats.Frame,
		Description: fmt.Sprintf("Water %.2f is %.1fx average (%.2f)", stats.WaterTotal, stats.WaterTotal/avg, avg),
	}
}

// checkSettled fires once the height distribution has stopped moving for
// five consecutive windows.
func (bd *BookmarkDetector) checkSettled(stats FieldStats) *Bookmark {
	history := bd.recent(3)
	if len(history) < 3 {
		return nil
	}
	window := append(history, stats)

	var mean float64
	for _, h := range window {
		mean += h.HeightStd
	}
	mean /= float64(len(window))
	var variance float64
	for _, h := range window {
		d := h.HeightStd - mean
		variance += d * d
	}
	variance /= float64(len(window))

	if mean > 0 && math.Sqrt(variance)/mean < 0.001 {
		bd.settledStreak++
	} else {
		bd.settledStreak = 0
	}

	if bd.settledStreak == 5 { // trigger exactly once per streak
		return &Bookmark{
			Type:        BookmarkSettled,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Height std steady at %.3f over 5+ windows", stats.HeightStd),
		}
	}
	return nil
}
