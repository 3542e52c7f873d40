package chart

import (
	"bytes"
	"testing"
	"time"

	"training-load/internal/trainload"
)

func TestRenderPNG(t *testing.T) {
	series := make([]trainload.Point, 10)
	for i := range series {
		series[i] = trainload.Point{
			Date: time.Date(2024, time.April, 1+i, 0, 0, 0, 0, time.UTC),
			TSS:  float64(40 + i),
			CTL:  float64(30 + i),
			ATL:  float64(35 + i),
			TSB:  -5,
		}
	}

	var buf bytes.Buffer
	if err := RenderPNG(&buf, series); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("rendered chart should not be empty")
	}
	// PNG magic bytes.
	if !bytes.HasPrefix(buf.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Fatal("output is not a PNG")
	}
}

func TestRenderPNGEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, nil); err == nil {
		t.Fatal("empty series should error")
	}
}
