package software

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/smallnest/ringbuffer"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

const (
	blockFrames = 1024

	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var errStreamClosed = errors.New("pcm stream closed")

// pcmStream decodes a WAV file into 16-bit stereo frames at the output
// rate. Every frame handed to the output is also written to the tap so an
// analyser can follow what is being played.
type pcmStream struct {
	mu sync.Mutex

	file       *os.File
	dec        *wav.Decoder
	srcRate    int
	channels   int
	divisor    float64
	frameSize  int64
	pcmStart   int64
	srcFrames  int64
	srcRead    int64
	outRate    int
	totalOut   int64
	outFrames  int64
	samples    []int
	block      *audio.IntBuffer
	blockFrame int
	blockLen   int

	// linear resampler state
	prev, cur [2]float64
	phase     float64
	primed    bool
	srcEOF    bool

	tap    *ringbuffer.RingBuffer
	closed bool
}

// openStream opens a PCM WAV file for playback at outRate.
func openStream(path string, outRate int, tap *ringbuffer.RingBuffer) (*pcmStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: not a valid WAV file", domain.ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		f.Close()
		return nil, fmt.Errorf("%w: WAV format %d", domain.ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("%w: bit depth %d", domain.ErrUnsupportedFormat, dec.BitDepth)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: empty format chunk", domain.ErrUnsupportedFormat)
	}

	// FwdToPCM positions the file at the start of the sample data
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	frameSize := int64(channels * bitDepth / 8)
	srcFrames := dec.PCMLen() / frameSize
	srcRate := int(dec.SampleRate)

	return &pcmStream{
		file:      f,
		dec:       dec,
		srcRate:   srcRate,
		channels:  channels,
		divisor:   sampleDivisor(bitDepth),
		frameSize: frameSize,
		pcmStart:  pcmStart,
		srcFrames: srcFrames,
		outRate:   outRate,
		totalOut:  srcFrames * int64(outRate) / int64(srcRate),
		samples:   make([]int, blockFrames*channels),
		block: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: srcRate},
			SourceBitDepth: bitDepth,
		},
		tap: tap,
	}, nil
}

// Duration returns the length of the source.
func (s *pcmStream) Duration() time.Duration {
	return time.Duration(float64(s.srcFrames) / float64(s.srcRate) * float64(time.Second))
}

// SampleRate returns the source sample rate.
func (s *pcmStream) SampleRate() int {
	return s.srcRate
}

// Read implements io.Reader with 16-bit little-endian stereo frames.
func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errStreamClosed
	}
	if len(p) < bytesPerFrame {
		return 0, io.ErrShortBuffer
	}

	step := float64(s.srcRate) / float64(s.outRate)
	n := 0
	for n+bytesPerFrame <= len(p) {
		if !s.primed {
			first, ok := s.nextFrame()
			if !ok {
				break
			}
			second, ok := s.nextFrame()
			if !ok {
				second = first
			}
			s.prev, s.cur, s.phase, s.primed = first, second, 0, true
		}
		for s.phase >= 1 && !s.srcEOF {
			next, ok := s.nextFrame()
			if !ok {
				break
			}
			s.prev, s.cur = s.cur, next
			s.phase--
		}
		if s.srcEOF && s.phase >= 1 {
			break
		}

		for ch := 0; ch < outputChannels; ch++ {
			v := s.prev[ch] + (s.cur[ch]-s.prev[ch])*s.phase
			binary.LittleEndian.PutUint16(p[n+ch*2:], uint16(toInt16(v)))
		}
		n += bytesPerFrame
		s.phase += step
	}

	if n == 0 {
		return 0, io.EOF
	}
	s.outFrames += int64(n / bytesPerFrame)
	s.feedTap(p[:n])
	return n, nil
}

// Seek implements io.Seeker over output bytes, so the output player can
// drop its buffer and restart from a new position.
func (s *pcmStream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errStreamClosed
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset / bytesPerFrame
	case io.SeekCurrent:
		target = s.outFrames + offset/bytesPerFrame
	case io.SeekEnd:
		target = s.totalOut + offset/bytesPerFrame
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	target = max(0, min(target, s.totalOut))

	srcFrame := target * int64(s.srcRate) / int64(s.outRate)
	if _, err := s.dec.Seek(s.pcmStart+srcFrame*s.frameSize, io.SeekStart); err != nil {
		return 0, err
	}
	// The data chunk reader counts what it has handed out; restart it at the new cursor
	s.dec.PCMChunk.R = io.LimitReader(s.file, (s.srcFrames-srcFrame)*s.frameSize)

	s.srcRead = srcFrame
	s.outFrames = target
	s.blockFrame, s.blockLen = 0, 0
	s.primed, s.srcEOF, s.phase = false, false, 0
	s.tap.Reset()

	return target * bytesPerFrame, nil
}

// offsetOf returns the output byte offset of a source position.
func (s *pcmStream) offsetOf(position time.Duration) int64 {
	return int64(position.Seconds()*float64(s.outRate)) * bytesPerFrame
}

// Played returns the position of the last frame handed to the output.
func (s *pcmStream) Played() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return framesToDuration(s.outFrames, s.outRate)
}

// Done returns true once the source is exhausted.
func (s *pcmStream) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outFrames >= s.totalOut || (s.srcEOF && s.phase >= 1)
}

// Close releases the file.
func (s *pcmStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// nextFrame returns the next source frame as a stereo pair in [-1,1].
func (s *pcmStream) nextFrame() ([2]float64, bool) {
	if s.blockFrame >= s.blockLen && !s.fill() {
		s.srcEOF = true
		return [2]float64{}, false
	}

	base := s.blockFrame * s.channels
	left := s.normalize(s.block.Data[base])
	right := left
	if s.channels > 1 {
		right = s.normalize(s.block.Data[base+1])
	}
	s.blockFrame++
	return [2]float64{left, right}, true
}

// fill decodes the next block of source frames.
func (s *pcmStream) fill() bool {
	remaining := s.srcFrames - s.srcRead
	if remaining <= 0 {
		return false
	}
	frames := int(min(int64(blockFrames), remaining))

	// PCMBuffer fills at most len(Data) samples, which keeps reads inside the data chunk
	s.block.Data = s.samples[:frames*s.channels]
	n, err := s.dec.PCMBuffer(s.block)
	if err != nil {
		return false
	}
	// A truncated file can end mid-frame
	frames = n / s.channels
	if frames == 0 {
		return false
	}
	s.srcRead += int64(frames)
	s.blockFrame, s.blockLen = 0, frames
	return true
}

// normalize maps a decoded sample to [-1,1]. 8-bit WAV samples are unsigned.
func (s *pcmStream) normalize(v int) float64 {
	if s.block.SourceBitDepth == 8 {
		v -= 128
	}
	return float64(v) / s.divisor
}

// sampleDivisor returns the full-scale value of a signed sample of bitDepth bits.
func sampleDivisor(bitDepth int) float64 {
	return float64(int64(1) << (bitDepth - 1))
}

// feedTap writes frames to the tap, dropping the oldest when it is full.
func (s *pcmStream) feedTap(p []byte) {
	if capacity := s.tap.Capacity(); len(p) > capacity {
		p = p[len(p)-capacity:]
	}
	if free := s.tap.Free(); free < len(p) {
		discard := make([]byte, len(p)-free)
		_, _ = s.tap.Read(discard)
	}
	_, _ = s.tap.Write(p)
}

func toInt16(v float64) int16 {
	v = math.Round(v * 32767)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func framesToDuration(frames int64, rate int) time.Duration {
	return time.Duration(float64(frames) / float64(rate) * float64(time.Second))
}
