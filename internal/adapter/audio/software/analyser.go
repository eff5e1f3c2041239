package software

import (
	"encoding/binary"
	"math"
	"math/cmplx"
	"sync"

	"github.com/smallnest/ringbuffer"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Byte scaling range of the analyser output.
const (
	minDecibels = -100.0
	maxDecibels = -30.0
)

// Analyser computes a smoothed magnitude spectrum of the frames flowing
// through the tap of its source, scaled to bytes between minDecibels and
// maxDecibels.
type Analyser struct {
	mu sync.Mutex

	fftSize   int
	smoothing float64
	fft       *fourier.FFT
	window    []float64
	samples   []float64
	windowed  []float64
	coeffs    []complex128
	smoothed  []float64
	scratch   []byte

	tap *ringbuffer.RingBuffer
}

func newAnalyser(fftSize int, smoothing float64) *Analyser {
	w := make([]float64, fftSize)
	for i := range w {
		w[i] = 1
	}

	return &Analyser{
		fftSize:   fftSize,
		smoothing: smoothing,
		fft:       fourier.NewFFT(fftSize),
		window:    window.Blackman(w),
		samples:   make([]float64, fftSize),
		windowed:  make([]float64, fftSize),
		coeffs:    make([]complex128, fftSize/2+1),
		smoothed:  make([]float64, fftSize/2),
	}
}

// FrequencyBinCount implements ports.AnalyserNode.
func (a *Analyser) FrequencyBinCount() int {
	return a.fftSize / 2
}

// ByteFrequencyData implements ports.AnalyserNode.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.drain()

	for i, s := range a.samples {
		a.windowed[i] = s * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.windowed)

	n := float64(a.fftSize)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) / n
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k < len(dst) {
			dst[k] = toByte(a.smoothed[k])
		}
	}
}

// Disconnect implements ports.AnalyserNode.
func (a *Analyser) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tap = nil
}

func (a *Analyser) attach(tap *ringbuffer.RingBuffer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tap = tap
}

// drain moves the frames waiting in the tap into the sliding sample window.
func (a *Analyser) drain() {
	if a.tap == nil {
		return
	}
	avail := a.tap.Length()
	avail -= avail % bytesPerFrame
	if avail == 0 {
		return
	}
	if cap(a.scratch) < avail {
		a.scratch = make([]byte, avail)
	}
	n, _ := a.tap.Read(a.scratch[:avail])
	a.push(a.scratch[:n-n%bytesPerFrame])
}

// push appends 16-bit stereo frames to the window as mono samples.
func (a *Analyser) push(frames []byte) {
	count := len(frames) / bytesPerFrame
	if count >= a.fftSize {
		frames = frames[(count-a.fftSize)*bytesPerFrame:]
		count = a.fftSize
	} else {
		copy(a.samples, a.samples[count:])
	}

	start := a.fftSize - count
	for i := 0; i < count; i++ {
		off := i * bytesPerFrame
		left := float64(int16(binary.LittleEndian.Uint16(frames[off:])))
		right := float64(int16(binary.LittleEndian.Uint16(frames[off+2:])))
		a.samples[start+i] = (left + right) / 2 / 32768
	}
}

// toByte maps a linear magnitude to the decibel byte scale.
func toByte(mag float64) byte {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return byte(scaled)
	}
}

var _ ports.AnalyserNode = (*Analyser)(nil)
