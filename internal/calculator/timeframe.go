package calculator

import (
	"strings"
	"time"

	"InvestorHelper/internal/model"
)

const day = 24 * time.Hour

// DefaultTimeframe is used for empty or unknown labels.
const DefaultTimeframe = "1D"

// Timeframes maps user-facing labels to fetch and resampling parameters.
// Thresholds stay at half the step so one bar never matches two grid points.
var Timeframes = map[string]struct {
	BarTimeframe string
	BarCount     int
	Lookback     time.Duration
	Step         time.Duration
	Threshold    time.Duration
}{
	"1D":  {"5m", 288, day, 5 * time.Minute, 150 * time.Second},
	"1W":  {"30m", 336, 7 * day, 30 * time.Minute, 15 * time.Minute},
	"1M":  {"1h", 744, 31 * day, time.Hour, 30 * time.Minute},
	"1Y":  {"1d", 366, 366 * day, day, 12 * time.Hour},
	"5Y":  {"1wk", 261, 5 * 365 * day, 7 * day, 84 * time.Hour},
	"all": {"1mo", 600, 50 * 365 * day, 30 * day, 15 * day},
}

// LookupTimeframe resolves a label to a TimeframeSpec ending at now.
func LookupTimeframe(label string, now time.Time) model.TimeframeSpec {
	key := strings.ToUpper(strings.TrimSpace(label))
	if key == "ALL" {
		key = "all"
	}
	tf, ok := Timeframes[key]
	if !ok {
		key = DefaultTimeframe
		tf = Timeframes[key]
	}
	return model.TimeframeSpec{
		Label:          key,
		BarTimeframe:   tf.BarTimeframe,
		BarCount:       tf.BarCount,
		From:           now.Add(-tf.Lookback).Truncate(tf.Step),
		StepInterval:   tf.Step,
		MatchThreshold: tf.Threshold,
	}
}
