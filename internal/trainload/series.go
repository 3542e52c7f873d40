package trainload

import (
	"encoding/json"
	"sort"
	"time"
)

// MessageNoActivities is the sentinel returned when the input batch produced
// no scorable points. Nothing is persisted in that case.
const MessageNoActivities = "no activities provided"

// historyWindow bounds the history slice in an assembled Result.
const historyWindow = 42

// Trend labels applied to the latest point of the series.
const (
	TrendFatigued = "fatigued"
	TrendBalanced = "balanced"
	TrendFresh    = "fresh"
)

// Point is one day of the training-load series. TSS is set by daily
// aggregation; CTL/ATL/TSB are filled in by the EMA pass.
type Point struct {
	Date time.Time
	TSS  float64
	CTL  float64
	ATL  float64
	TSB  float64
}

type pointJSON struct {
	Date string  `json:"date"`
	TSS  float64 `json:"tss"`
	CTL  float64 `json:"ctl"`
	ATL  float64 `json:"atl"`
	TSB  float64 `json:"tsb"`
}

// MarshalJSON renders the date as a plain calendar date.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{
		Date: p.Date.Format("2006-01-02"),
		TSS:  p.TSS,
		CTL:  p.CTL,
		ATL:  p.ATL,
		TSB:  p.TSB,
	})
}

// UnmarshalJSON accepts the same calendar-date form, so a serialised series
// round-trips.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw pointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := time.ParseInLocation("2006-01-02", raw.Date, time.UTC)
	if err != nil {
		return err
	}
	*p = Point{Date: date, TSS: raw.TSS, CTL: raw.CTL, ATL: raw.ATL, TSB: raw.TSB}
	return nil
}

// Summary is the latest point of the series with values rounded to one
// decimal place plus the classified trend.
type Summary struct {
	CTL   float64 `json:"ctl"`
	ATL   float64 `json:"atl"`
	TSB   float64 `json:"tsb"`
	Trend string  `json:"trend"`
}

// Result is what the pipeline hands back to the caller: either a summary
// with a bounded history window, or the empty-input sentinel message.
type Result struct {
	Summary *Summary `json:"summary,omitempty"`
	History []Point  `json:"history,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Compute runs the full load model over a batch: threshold pace estimation,
// per-activity scoring, daily aggregation, and the EMA pass. It returns the
// complete enriched series in ascending date order together with the
// activities that were skipped. The function is pure and deterministic.
func Compute(batch []Activity, params Params) ([]Point, []ComputationError) {
	if len(batch) == 0 {
		return nil, nil
	}

	threshold := EstimateThresholdPace(batch, params.FallbackThresholdPace)

	byDate := make(map[time.Time]float64)
	var skipped []ComputationError
	for _, a := range batch {
		if !a.Kind.Scored() {
			continue
		}
		score, err := params.Score(a, threshold)
		if err != nil {
			if ce, ok := err.(*ComputationError); ok {
				skipped = append(skipped, *ce)
				continue
			}
			skipped = append(skipped, ComputationError{ActivityID: a.ID, Reason: err.Error()})
			continue
		}
		byDate[a.Date()] += score
	}

	series := make([]Point, 0, len(byDate))
	for date, tss := range byDate {
		series = append(series, Point{Date: date, TSS: tss})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	applyEMA(series, params.CTLSpan, params.ATLSpan)
	return series, skipped
}

// applyEMA fills CTL/ATL/TSB in place over the ordered TSS sequence. The
// recurrence is seeded with the first element, so the first point always has
// ctl == atl == tss[0] and tsb == 0. Calendar gaps are not filled; present
// dates are treated as consecutive steps.
func applyEMA(series []Point, ctlSpan, atlSpan int) {
	if len(series) == 0 {
		return
	}

	ctlAlpha := 2 / (float64(ctlSpan) + 1)
	atlAlpha := 2 / (float64(atlSpan) + 1)

	ctl := series[0].TSS
	atl := series[0].TSS
	for i := range series {
		if i > 0 {
			ctl += ctlAlpha * (series[i].TSS - ctl)
			atl += atlAlpha * (series[i].TSS - atl)
		}
		series[i].CTL = ctl
		series[i].ATL = atl
		series[i].TSB = ctl - atl
	}
}

// ClassifyTrend labels a TSB value. It is a pure function of the most recent
// point only.
func ClassifyTrend(tsb float64) string {
	switch {
	case tsb < -10:
		return TrendFatigued
	case tsb > 10:
		return TrendFresh
	default:
		return TrendBalanced
	}
}

// Assemble packages a computed series for the caller: the latest point
// rounded to one decimal place plus the last 42 points. An empty series
// yields the sentinel message.
func Assemble(series []Point) Result {
	if len(series) == 0 {
		return Result{Message: MessageNoActivities}
	}

	latest := series[len(series)-1]
	history := series
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	return Result{
		Summary: &Summary{
			CTL:   round1(latest.CTL),
			ATL:   round1(latest.ATL),
			TSB:   round1(latest.TSB),
			Trend: ClassifyTrend(latest.TSB),
		},
		History: history,
	}
}
