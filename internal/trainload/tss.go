package trainload

import (
	"fmt"
	"math"
)

// Params hold the tunable constants of the load model. They are passed in at
// construction instead of read from the environment so tests can override
// them per case.
type Params struct {
	HRRest                float64
	HRMax                 float64
	CTLSpan               int
	ATLSpan               int
	FallbackThresholdPace float64 // seconds per km
}

// DefaultParams returns the stock model constants.
func DefaultParams() Params {
	return Params{
		HRRest:                55,
		HRMax:                 166,
		CTLSpan:               42,
		ATLSpan:               7,
		FallbackThresholdPace: 300,
	}
}

// ComputationError records a single activity that could not be scored. It is
// a per-activity skip, never a batch failure.
type ComputationError struct {
	ActivityID int64
	Reason     string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("activity %d: %s", e.ActivityID, e.Reason)
}

// EstimateThresholdPace derives a functional threshold pace (s/km) from the
// full activity batch, unfiltered by kind. Only sustained efforts qualify
// (more than 2 km and more than 10 minutes); the best qualifying pace gets a
// 5% safety margin. Returns fallback when nothing qualifies.
func EstimateThresholdPace(batch []Activity, fallback float64) float64 {
	best := math.Inf(1)
	for _, a := range batch {
		if a.Distance <= 2000 || a.MovingTime <= 600 {
			continue
		}
		if pace, ok := a.Pace(); ok && pace < best {
			best = pace
		}
	}
	if math.IsInf(best, 1) {
		return fallback
	}
	return best * 0.95
}

// Score converts one activity into a training-stress value, rounded to one
// decimal place. Heart-rate data wins when present; otherwise the pace-based
// formula normalised by thresholdPace is used. An activity with neither a
// heart rate nor a defined pace yields a ComputationError.
func (p Params) Score(a Activity, thresholdPace float64) (float64, error) {
	if a.MovingTime <= 0 {
		return 0, &ComputationError{ActivityID: a.ID, Reason: "non-positive moving time"}
	}

	durationHours := float64(a.MovingTime) / 3600

	if a.AverageHR != nil && *a.AverageHR > 0 {
		ri := clampIntensity((*a.AverageHR - p.HRRest) / (0.9*p.HRMax - p.HRRest))
		return round1(durationHours * ri * ri * 100), nil
	}

	pace, ok := a.Pace()
	if !ok {
		return 0, &ComputationError{ActivityID: a.ID, Reason: "no heart rate and no usable pace"}
	}

	ri := clampIntensity(thresholdPace / pace)
	return round1(durationHours * ri * ri * 100), nil
}

// clampIntensity bounds the relative intensity ratio to [0, 1.2].
func clampIntensity(ri float64) float64 {
	if ri < 0 {
		return 0
	}
	if ri > 1.2 {
		return 1.2
	}
	return ri
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
