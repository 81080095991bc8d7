package calculator

import (
	"sort"
	"time"

	"InvestorHelper/internal/model"
)

type indexedPoint struct {
	at    time.Time
	close float64
	order int // position in the caller's series
}

// Align resamples series onto grid. A bar matches a grid timestamp when it lies strictly
// closer than threshold; unmatched timestamps carry the last known close forward, starting
// from the oldest close in the series. When several bars fall inside one window the bar that
// comes first in the caller's series wins.
func Align(grid []time.Time, series []model.PricePoint, threshold time.Duration) []model.AlignedPoint {
	out := make([]model.AlignedPoint, len(grid))
	if len(series) == 0 {
		for i, g := range grid {
			out[i] = model.AlignedPoint{Timestamp: g}
		}
		return out
	}

	points := make([]indexedPoint, len(series))
	for i, p := range series {
		points[i] = indexedPoint{at: p.At(), close: p.Close, order: i}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	lastKnown := points[0].close
	lo := 0
	for i, g := range grid {
		// Skip bars too old for this and every later grid timestamp.
		for lo < len(points) && !within(points[lo].at, g, threshold) && points[lo].at.Before(g) {
			lo++
		}
		best := -1
		for j := lo; j < len(points); j++ {
			if !within(points[j].at, g, threshold) {
				if points[j].at.After(g) {
					break
				}
				continue
			}
			if best < 0 || points[j].order < points[best].order {
				best = j
			}
		}
		if best >= 0 {
			lastKnown = points[best].close
			out[i] = model.AlignedPoint{Timestamp: g, Price: lastKnown, Matched: true}
			continue
		}
		out[i] = model.AlignedPoint{Timestamp: g, Price: lastKnown}
	}
	return out
}

// within reports |at - g| < threshold. A zero threshold matches exact timestamps only.
func within(at, g time.Time, threshold time.Duration) bool {
	d := at.Sub(g)
	if d < 0 {
		d = -d
	}
	if threshold <= 0 {
		return d == 0
	}
	return d < threshold
}
