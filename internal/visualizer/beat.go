package visualizer

import (
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// BandBeat is the decay state of a single band.
type BandBeat struct {
	Reference float64
	Active    bool
	Hold      int
}

// BeatState carries the per-band decay state across frames.
type BeatState struct {
	Bands [3]BandBeat
}

// Reset clears the references and hold counters.
func (s *BeatState) Reset() {
	*s = BeatState{}
}

// BeatDetector flags transient rises of a band above its decaying reference.
type BeatDetector struct {
	threshold  float64
	filter     float64
	holdFrames int
}

// NewBeatDetector creates a detector with the configured threshold, filter and hold.
func NewBeatDetector(cfg Config) *BeatDetector {
	return &BeatDetector{
		threshold:  cfg.BeatThreshold,
		filter:     cfg.BeatFilter,
		holdFrames: cfg.BeatHoldFrames,
	}
}

// Detect updates state in place and reports the beats of this frame.
//
// A band beats when current > reference*(1+threshold) and current > threshold.
// On a beat the reference snaps to current and the hold counter resets.
// Otherwise the reference moves toward current by the filter factor and the
// band stays active until its hold counter runs out.
func (d *BeatDetector) Detect(current domain.BandIntensities, state *BeatState) domain.BeatFlags {
	var flags domain.BeatFlags

	for _, band := range domain.Bands {
		cur := current.Get(band)
		s := &state.Bands[band]

		if cur > s.Reference*(1+d.threshold) && cur > d.threshold {
			s.Reference = cur
			s.Hold = d.holdFrames
			s.Active = true
			flags.Onset[band] = true
		} else {
			s.Reference = cur*d.filter + s.Reference*(1-d.filter)
			if s.Hold > 0 {
				s.Hold--
				s.Active = true
			} else {
				s.Active = false
			}
		}

		flags.Active[band] = s.Active
	}

	return flags
}
