// Package trainload derives a physiological training-load time series from a
// batch of exercise activities: a training-stress score (TSS) per activity,
// daily aggregation, and rolling CTL/ATL/TSB computed with exponential
// moving averages.
package trainload

import (
	"strings"
	"time"
)

// Kind classifies an activity at ingestion. The free-form type strings from
// the activity source are folded into this closed set once, so the rest of
// the pipeline never compares raw strings.
type Kind string

const (
	KindRun   Kind = "run"
	KindRide  Kind = "ride"
	KindOther Kind = "other"
)

// ParseKind maps a provider type string onto a Kind. Comparison is
// case-insensitive. Only the plain run type counts as a run; trail and
// virtual runs stay outside the scored set.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "run":
		return KindRun
	case "ride", "virtualride", "mountainbikeride", "gravelride":
		return KindRide
	default:
		return KindOther
	}
}

// Scored reports whether activities of this kind contribute to the load
// series. Only runs are scored; everything else is filtered out silently.
func (k Kind) Scored() bool {
	return k == KindRun
}

// Activity is one immutable exercise record from the activity source.
type Activity struct {
	ID         int64
	Kind       Kind
	Distance   float64 // meters
	MovingTime int     // seconds
	AverageHR  *float64
	StartDate  time.Time // naive UTC
}

// Pace returns the activity pace in seconds per kilometer and whether it is
// defined. Pace is undefined when distance or moving time is non-positive.
func (a Activity) Pace() (float64, bool) {
	if a.Distance <= 0 || a.MovingTime <= 0 {
		return 0, false
	}
	return float64(a.MovingTime) / (a.Distance / 1000), true
}

// Date returns the calendar date portion of StartDate at UTC midnight.
func (a Activity) Date() time.Time {
	y, m, d := a.StartDate.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
