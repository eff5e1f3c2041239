package visualizer

import (
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// FrequencyAnalyzer reduces analyser byte data into band intensities.
type FrequencyAnalyzer struct {
	cfg        Config
	sampleRate int
}

// NewFrequencyAnalyzer creates an analyzer for the given configuration.
func NewFrequencyAnalyzer(cfg Config) *FrequencyAnalyzer {
	return &FrequencyAnalyzer{cfg: cfg}
}

// SetSampleRate sets the analyser sample rate used by PartitionHz.
// With a zero rate the analyzer falls back to index partitioning.
func (a *FrequencyAnalyzer) SetSampleRate(rate int) {
	a.sampleRate = rate
}

// Analyze returns the band intensities of one frame of analyser bytes.
// An empty buffer means there is no live data and yields the idle set.
func (a *FrequencyAnalyzer) Analyze(raw []byte) domain.BandIntensities {
	if len(raw) == 0 {
		return a.Idle()
	}

	var low, mid, high float64
	if a.cfg.Partition == PartitionHz && a.sampleRate > 0 {
		low, mid, high = a.partitionHz(raw)
	} else {
		low, mid, high = a.partitionIndex(raw)
	}

	return a.combine(low, mid, high)
}

// Idle returns the small constant intensity set used when no live data is available.
func (a *FrequencyAnalyzer) Idle() domain.BandIntensities {
	return a.combine(a.cfg.IdleLow, a.cfg.IdleMid, a.cfg.IdleHigh)
}

func (a *FrequencyAnalyzer) combine(low, mid, high float64) domain.BandIntensities {
	return domain.BandIntensities{
		Low:     low,
		Mid:     mid,
		High:    high,
		Overall: clamp01(low*a.cfg.OverallLowW + mid*a.cfg.OverallMidW + high*a.cfg.OverallHighW),
	}
}

// partitionIndex splits bins 10/30/60 by index.
func (a *FrequencyAnalyzer) partitionIndex(raw []byte) (low, mid, high float64) {
	n := len(raw)
	lowEnd := max(n/10, 1)
	midEnd := max(lowEnd+(n*3)/10, lowEnd)
	if midEnd > n {
		midEnd = n
	}

	return meanNorm(raw[:lowEnd]), meanNorm(raw[lowEnd:midEnd]), meanNorm(raw[midEnd:])
}

// partitionHz splits bins by their centre frequency.
// Bin i covers i*sampleRate/fftSize Hz where fftSize = 2*len(raw).
func (a *FrequencyAnalyzer) partitionHz(raw []byte) (low, mid, high float64) {
	binWidth := float64(a.sampleRate) / float64(2*len(raw))

	var sums [3]float64
	var counts [3]int
	for i, v := range raw {
		freq := float64(i) * binWidth
		var band int
		switch {
		case freq < a.cfg.MinHz:
			continue
		case freq < a.cfg.LowMaxHz:
			band = 0
		case freq < a.cfg.MidMaxHz:
			band = 1
		case freq < a.cfg.HighMaxHz:
			band = 2
		default:
			continue
		}
		sums[band] += float64(v)
		counts[band]++
	}

	var out [3]float64
	for i := range out {
		if counts[i] > 0 {
			out[i] = clamp01(sums[i] / float64(counts[i]) / 255)
		}
	}
	return out[0], out[1], out[2]
}

// meanNorm returns the mean of the bytes divided by 255.
func meanNorm(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	var sum int
	for _, v := range b {
		sum += int(v)
	}
	return clamp01(float64(sum) / float64(len(b)) / 255)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
