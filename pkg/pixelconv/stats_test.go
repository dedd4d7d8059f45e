package pixelconv

import (
	"math"
	"testing"
)

func TestStatsGray(t *testing.T) {
	img := mustBuffer(t, 5, 1, Gray, []byte{40, 0, 20, 10, 30})
	stats, err := Stats(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d channels, want 1", len(stats))
	}
	s := stats[0]
	if s.Channel != GrayChannel || s.Min != 0 || s.Max != 40 {
		t.Errorf("got %v", s)
	}
	if s.Mean != 20 || s.Median != 20 {
		t.Errorf("Mean/Median = %v/%v, want 20/20", s.Mean, s.Median)
	}
	if want := math.Sqrt(200); math.Abs(s.StdDev-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", s.StdDev, want)
	}
	if s.Histogram[20] != 1 || s.Histogram[21] != 0 {
		t.Errorf("histogram[20..21] = %v", s.Histogram[20:22])
	}
}

func TestStatsColorChannelsAreSeparate(t *testing.T) {
	img := mustBuffer(t, 3, 1, Color, []byte{
		10, 100, 255,
		10, 110, 255,
		10, 120, 0,
	})
	stats, err := Stats(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 3 {
		t.Fatalf("got %d channels, want 3", len(stats))
	}
	tests := []struct {
		ch       Channel
		min, max uint8
		median   float64
	}{
		{Red, 10, 10, 10},
		{Green, 100, 120, 110},
		{Blue, 0, 255, 255},
	}
	for i, tt := range tests {
		s := stats[i]
		if s.Channel != tt.ch || s.Min != tt.min || s.Max != tt.max || s.Median != tt.median {
			t.Errorf("channel %d = %v, want %v min=%d max=%d median=%v", i, s, tt.ch, tt.min, tt.max, tt.median)
		}
	}
	if stats[0].StdDev != 0 {
		t.Errorf("constant channel StdDev = %v, want 0", stats[0].StdDev)
	}
}

func TestStatsSinglePixel(t *testing.T) {
	stats, err := Stats(mustBuffer(t, 1, 1, Gray, []byte{200}))
	if err != nil {
		t.Fatal(err)
	}
	s := stats[0]
	if s.Mean != 200 || s.Median != 200 || s.StdDev != 0 {
		t.Errorf("got %v", s)
	}
}

func TestStatsNil(t *testing.T) {
	if _, err := Stats(nil); !IsStateError(err) {
		t.Errorf("Stats(nil) error = %v, want StateError", err)
	}
}
