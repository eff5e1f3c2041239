package app

import (
	"math"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/audio/mock"
)

// DemoDuration is the length reported for sources played in mock mode.
const DemoDuration = 180

// DemoSignal synthesizes 120 BPM frequency data for the mock platform:
// a kick on every beat, a snare on the off beat and hats on eighths.
// n counts analyser reads, which happen once per frame at fps.
func DemoSignal(fps int) mock.Signal {
	beat := max(fps/2, 2)

	return func(n int, dst []byte) {
		kick := decay(n%beat, beat/6)
		snare := decay((n+beat/2)%(2*beat), beat/4)
		hat := decay(n%max(beat/2, 1), beat/10)

		bins := float64(len(dst))
		for i := range dst {
			pos := float64(i) / bins
			var v float64
			switch {
			case pos < 0.1:
				v = 0.2 + 0.75*kick
			case pos < 0.4:
				v = 0.15 + 0.6*snare
			default:
				v = 0.08 + 0.5*hat*(1-pos)
			}
			v += 0.04 * math.Sin(float64(i*7+n*3))
			dst[i] = byte(math.Round(math.Max(0, math.Min(v, 1)) * 255))
		}
	}
}

// decay is an exponential envelope over frames since the hit.
func decay(since, frames int) float64 {
	return math.Exp(-float64(since) / float64(max(frames, 1)))
}
