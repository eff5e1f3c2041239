// Package software implements the audio ports on top of a WAV decoder,
// the oto output driver and an FFT analyser.
package software

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	// OutputSampleRate is the rate of the shared output device.
	OutputSampleRate = 44100

	outputChannels = 2
	bytesPerFrame  = outputChannels * 2 // 16-bit stereo
)

// Output plays PCM streams of 16-bit little-endian stereo frames.
type Output interface {
	// SampleRate returns the device frame rate.
	SampleRate() int

	// NewPlayer creates a paused player pulling from r.
	NewPlayer(r io.Reader) OutputPlayer
}

// OutputPlayer is the playback handle of one stream. *oto.Player implements it.
type OutputPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	BufferedSize() int
	Seek(offset int64, whence int) (int64, error)
}

// OtoOutput is an Output on the process-wide oto context.
type OtoOutput struct {
	ctx *oto.Context
}

var (
	sharedOutput    *OtoOutput
	sharedOnce      sync.Once
	sharedOutputErr error
)

// SharedOutput returns the process-wide output. The device can only be
// opened once per process, so every platform shares it.
func SharedOutput() (*OtoOutput, error) {
	sharedOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   OutputSampleRate,
			ChannelCount: outputChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			sharedOutputErr = fmt.Errorf("open audio output: %w", err)
			return
		}
		<-ready
		sharedOutput = &OtoOutput{ctx: ctx}
	})
	return sharedOutput, sharedOutputErr
}

// SampleRate implements Output.
func (o *OtoOutput) SampleRate() int {
	return OutputSampleRate
}

// NewPlayer implements Output.
func (o *OtoOutput) NewPlayer(r io.Reader) OutputPlayer {
	return o.ctx.NewPlayer(r)
}
