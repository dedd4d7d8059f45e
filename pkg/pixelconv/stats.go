package pixelconv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ChannelStats summarises one channel of a buffer.
type ChannelStats struct {
	Channel   Channel
	Min       uint8
	Max       uint8
	Mean      float64
	Median    float64
	StdDev    float64
	Histogram [256]int
}

func (s ChannelStats) String() string {
	return fmt.Sprintf("{%s: Min=%d, Max=%d, Mean=%.2f, Median=%.0f, StdDev=%.2f}",
		s.Channel, s.Min, s.Max, s.Mean, s.Median, s.StdDev)
}

// Stats returns per-channel statistics: one entry for Gray buffers, three
// (R, G, B) for Color. StdDev is the population standard deviation and
// Median is the lower median.
func Stats(img *PixelBuffer) ([]ChannelStats, error) {
	if img == nil {
		return nil, &StateError{Op: "stats", Want: "buffer", Got: "<nil>"}
	}
	channels := img.Channels()
	result := make([]ChannelStats, channels)
	for c := range result {
		result[c].Channel = GrayChannel
		if img.layout == Color {
			result[c].Channel = Channel(c)
		}
	}

	for i, v := range img.data {
		result[i%channels].Histogram[v]++
	}
	for c := range result {
		summarizeHistogram(&result[c])
	}
	return result, nil
}

// summarizeHistogram fills the scalar fields from s.Histogram.
func summarizeHistogram(s *ChannelStats) {
	values := make([]float64, 0, 256)
	weights := make([]float64, 0, 256)
	for v, n := range s.Histogram {
		if n == 0 {
			continue
		}
		values = append(values, float64(v))
		weights = append(weights, float64(n))
	}
	if len(values) == 0 {
		return
	}
	s.Min = uint8(values[0])
	s.Max = uint8(values[len(values)-1])
	s.Mean = stat.Mean(values, weights)
	s.StdDev = math.Sqrt(stat.Moment(2, values, weights))
	s.Median = stat.Quantile(0.5, stat.Empirical, values, weights)
}
