package storage

import "fmt"

// HistogramConfig defines the bins used for winning counters: NumBins-1
// equal-width bins over [0, Max) and one open bin "Max+".
type HistogramConfig struct {
	Max     int
	NumBins int
}

// HistogramBucket is one bin in a histogram (label + count).
type HistogramBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DefaultHistogramConfig covers counters of an 8-pair board: a perfect
// closed game takes 16 flips.
var DefaultHistogramConfig = HistogramConfig{Max: 48, NumBins: 7}

func histogramConfigOrDefault(cfg *HistogramConfig) HistogramConfig {
	if cfg == nil || cfg.NumBins < 2 || cfg.Max <= 0 {
		return DefaultHistogramConfig
	}
	return *cfg
}

func histogramStep(cfg HistogramConfig) int {
	step := cfg.Max / (cfg.NumBins - 1)
	if step < 1 {
		step = 1
	}
	return step
}

// histogramLabels returns labels for the bins: "0-step", "step-2*step", ..., "Max+".
func histogramLabels(cfg HistogramConfig) []string {
	step := histogramStep(cfg)
	labels := make([]string, 0, cfg.NumBins)
	for i := 0; i < cfg.NumBins-1; i++ {
		labels = append(labels, fmt.Sprintf("%d-%d", i*step, (i+1)*step))
	}
	return append(labels, fmt.Sprintf("%d+", cfg.Max))
}

func newHistogram(cfg HistogramConfig) []HistogramBucket {
	labels := histogramLabels(cfg)
	out := make([]HistogramBucket, len(labels))
	for i, l := range labels {
		out[i].Label = l
	}
	return out
}

// binIndex returns the bin v falls in.
func binIndex(cfg HistogramConfig, v int) int {
	if v >= cfg.Max {
		return cfg.NumBins - 1
	}
	if v < 0 {
		return 0
	}
	i := v / histogramStep(cfg)
	if i >= cfg.NumBins-1 {
		i = cfg.NumBins - 2
	}
	return i
}
