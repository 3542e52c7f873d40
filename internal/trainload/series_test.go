package trainload

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestApplyEMASeedsWithFirstElement(t *testing.T) {
	series := []Point{
		{Date: day(1), TSS: 20},
		{Date: day(2), TSS: 0},
		{Date: day(3), TSS: 0},
	}

	applyEMA(series, 42, 7)

	wantATL := []float64{20, 15, 11.25}
	for i, want := range wantATL {
		if series[i].ATL != want {
			t.Fatalf("atl[%d] = %v, want %v", i, series[i].ATL, want)
		}
	}
	if series[0].CTL != 20 || series[0].TSB != 0 {
		t.Fatalf("first point must have ctl == tss and tsb == 0, got ctl=%v tsb=%v",
			series[0].CTL, series[0].TSB)
	}
}

func TestComputeAggregatesSameDayAndFiltersKinds(t *testing.T) {
	params := DefaultParams()
	morning := time.Date(2024, time.March, 5, 7, 30, 0, 0, time.UTC)
	evening := time.Date(2024, time.March, 5, 18, 0, 0, 0, time.UTC)

	run1 := Activity{ID: 1, Kind: KindRun, Distance: 8000, MovingTime: 2400, AverageHR: hr(140), StartDate: morning}
	run2 := Activity{ID: 2, Kind: KindRun, Distance: 5000, MovingTime: 1500, AverageHR: hr(120), StartDate: evening}
	ride := Activity{ID: 3, Kind: KindRide, Distance: 40000, MovingTime: 5400, AverageHR: hr(150), StartDate: evening}

	batch := []Activity{run1, run2, ride}
	series, skipped := Compute(batch, params)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %v", skipped)
	}
	if len(series) != 1 {
		t.Fatalf("expected a single daily point, got %d", len(series))
	}

	threshold := EstimateThresholdPace(batch, params.FallbackThresholdPace)
	s1, _ := params.Score(run1, threshold)
	s2, _ := params.Score(run2, threshold)
	if series[0].TSS != s1+s2 {
		t.Fatalf("same-day scores should sum: got %v, want %v", series[0].TSS, s1+s2)
	}
	if series[0].Date.Format("2006-01-02") != "2024-03-05" {
		t.Fatalf("unexpected date %v", series[0].Date)
	}
}

func TestComputeSkipsUnscorableActivity(t *testing.T) {
	params := DefaultParams()
	good := Activity{ID: 1, Kind: KindRun, Distance: 6000, MovingTime: 1800, AverageHR: hr(130), StartDate: day(2)}
	bad := Activity{ID: 2, Kind: KindRun, Distance: 0, MovingTime: 1200, StartDate: day(3)}

	series, skipped := Compute([]Activity{good, bad}, params)
	if len(series) != 1 {
		t.Fatalf("good activity should still produce a point, got %d", len(series))
	}
	if len(skipped) != 1 || skipped[0].ActivityID != 2 {
		t.Fatalf("bad activity should be skipped with a record, got %v", skipped)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	params := DefaultParams()
	var batch []Activity
	for i := 1; i <= 10; i++ {
		batch = append(batch, Activity{
			ID:         int64(i),
			Kind:       KindRun,
			Distance:   5000 + float64(i)*250,
			MovingTime: 1500 + i*60,
			AverageHR:  hr(120 + float64(i)),
			StartDate:  day(i),
		})
	}

	first, _ := Compute(batch, params)
	second, _ := Compute(batch, params)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("compute must be idempotent for identical input")
	}
	if !reflect.DeepEqual(Assemble(first), Assemble(second)) {
		t.Fatal("assembled results must be identical for identical input")
	}
}

func TestAssembleEmptySeries(t *testing.T) {
	res := Assemble(nil)
	if res.Message != MessageNoActivities {
		t.Fatalf("empty series should yield the sentinel message, got %q", res.Message)
	}
	if res.Summary != nil || len(res.History) != 0 {
		t.Fatal("sentinel result should carry no summary or history")
	}
}

func TestAssembleBoundsHistoryWindow(t *testing.T) {
	series := make([]Point, 60)
	for i := range series {
		series[i] = Point{Date: day(1).AddDate(0, 0, i), TSS: float64(i)}
	}
	applyEMA(series, 42, 7)

	res := Assemble(series)
	if len(res.History) != 42 {
		t.Fatalf("history should cap at 42 points, got %d", len(res.History))
	}
	if !res.History[0].Date.Equal(series[18].Date) {
		t.Fatalf("history should keep the most recent points, starts at %v", res.History[0].Date)
	}
	if res.Summary == nil {
		t.Fatal("summary missing")
	}
	if got, want := res.Summary.Trend, ClassifyTrend(series[59].TSB); got != want {
		t.Fatalf("trend = %q, want %q", got, want)
	}
}

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		tsb  float64
		want string
	}{
		{-10.1, TrendFatigued},
		{-10, TrendBalanced},
		{0, TrendBalanced},
		{10, TrendBalanced},
		{10.1, TrendFresh},
	}
	for _, tc := range cases {
		if got := ClassifyTrend(tc.tsb); got != tc.want {
			t.Fatalf("ClassifyTrend(%v) = %q, want %q", tc.tsb, got, tc.want)
		}
	}
}

func TestPointJSONDateFormat(t *testing.T) {
	p := Point{Date: day(5), TSS: 25, CTL: 25, ATL: 25}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal point: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal point: %v", err)
	}
	if decoded["date"] != "2024-01-05" {
		t.Fatalf("date should serialise as calendar date, got %v", decoded["date"])
	}

	var back Point
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal back into Point: %v", err)
	}
	if !back.Date.Equal(p.Date) || back.TSS != p.TSS || back.CTL != p.CTL {
		t.Fatalf("point did not round-trip: %+v", back)
	}
}
