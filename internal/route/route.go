// Package route answers route validity and distance questions over a
// train's ordered stop sequence. A train's stops form a single ordered
// line, so the representation is a sorted array plus a station index
// map: O(n) build, O(1) lookup, no graph search.
package route

import (
	"context"
	"math"
	"sort"
	"sync"

	"railbook/internal/apperr"
	"railbook/internal/models"
)

// Line is the immutable ordered-stop view of one train.
type Line struct {
	trainID int64
	stops   []models.Stop
	index   map[int64]int
}

// NewLine builds a Line from raw stop records. Input order does not
// matter; stops are sorted by their sequence number.
func NewLine(trainID int64, stops []models.Stop) *Line {
	ordered := make([]models.Stop, len(stops))
	copy(ordered, stops)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	index := make(map[int64]int, len(ordered))
	for i, s := range ordered {
		index[s.StationID] = i
	}

	return &Line{trainID: trainID, stops: ordered, index: index}
}

// Validate reports whether the train travels from one station to the
// other in that order. Equal or reversed order is invalid; there is no
// return-trip inference.
func (l *Line) Validate(fromStation, toStation int64) bool {
	from, okFrom := l.index[fromStation]
	to, okTo := l.index[toStation]
	return okFrom && okTo && from < to
}

// Distance returns the distance in km between two stations on the line.
func (l *Line) Distance(fromStation, toStation int64) (float64, error) {
	if !l.Validate(fromStation, toStation) {
		return 0, apperr.RouteNotFound(l.trainID, fromStation, toStation)
	}
	from := l.stops[l.index[fromStation]]
	to := l.stops[l.index[toStation]]
	return math.Abs(to.DistanceKm - from.DistanceKm), nil
}

// StationsBetween returns the inclusive stop slice between the two
// stations. Display only; allocation decisions never read it.
func (l *Line) StationsBetween(fromStation, toStation int64) ([]models.Stop, error) {
	if !l.Validate(fromStation, toStation) {
		return nil, apperr.RouteNotFound(l.trainID, fromStation, toStation)
	}
	from := l.index[fromStation]
	to := l.index[toStation]
	out := make([]models.Stop, to-from+1)
	copy(out, l.stops[from:to+1])
	return out, nil
}

// Stops returns the full ordered stop list.
func (l *Line) Stops() []models.Stop {
	out := make([]models.Stop, len(l.stops))
	copy(out, l.stops)
	return out
}

// LoadFunc fetches the ordered stop records of a train from the catalog
// store.
type LoadFunc func(ctx context.Context, trainID int64) ([]models.Stop, error)

// Index caches Lines per train. Lines are built on first access; the
// fill runs under the index lock so concurrent callers see exactly one
// build per train.
type Index struct {
	mu    sync.RWMutex
	lines map[int64]*Line
	load  LoadFunc
}

// NewIndex creates an empty index backed by the given loader.
func NewIndex(load LoadFunc) *Index {
	return &Index{lines: make(map[int64]*Line), load: load}
}

// Line returns the cached Line for a train, building it on first use.
func (ix *Index) Line(ctx context.Context, trainID int64) (*Line, error) {
	ix.mu.RLock()
	line, ok := ix.lines[trainID]
	ix.mu.RUnlock()
	if ok {
		return line, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if line, ok := ix.lines[trainID]; ok {
		return line, nil
	}

	stops, err := ix.load(ctx, trainID)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, apperr.ErrTrainNotFound
	}
	line = NewLine(trainID, stops)
	ix.lines[trainID] = line
	return line, nil
}

// Invalidate drops the cached line for a train, e.g. after its stop
// sequence is republished.
func (ix *Index) Invalidate(trainID int64) {
	ix.mu.Lock()
	delete(ix.lines, trainID)
	ix.mu.Unlock()
}
