package software

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/smallnest/ringbuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/logger"
	"github.com/tejashwikalptaru/wavepulse/internal/testutil"
)

// fakeOutput hands out players that only read when the test pulls.
type fakeOutput struct {
	mu      sync.Mutex
	players []*fakePlayer
}

func (o *fakeOutput) SampleRate() int { return OutputSampleRate }

func (o *fakeOutput) NewPlayer(r io.Reader) OutputPlayer {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := &fakePlayer{r: r}
	o.players = append(o.players, p)
	return p
}

func (o *fakeOutput) last() *fakePlayer {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.players) == 0 {
		return nil
	}
	return o.players[len(o.players)-1]
}

type fakePlayer struct {
	mu      sync.Mutex
	r       io.Reader
	playing bool
	volume  float64
}

func (p *fakePlayer) Play()  { p.mu.Lock(); p.playing = true; p.mu.Unlock() }
func (p *fakePlayer) Pause() { p.mu.Lock(); p.playing = false; p.mu.Unlock() }

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) SetVolume(v float64) { p.mu.Lock(); p.volume = v; p.mu.Unlock() }

func (p *fakePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *fakePlayer) BufferedSize() int { return 0 }

func (p *fakePlayer) Seek(offset int64, whence int) (int64, error) {
	return p.r.(io.Seeker).Seek(offset, whence)
}

// drain consumes the whole stream as the device would.
func (p *fakePlayer) drain() ([]byte, error) {
	return io.ReadAll(p.r)
}

// writeWAV writes a PCM WAV file and returns its path.
func writeWAV(t *testing.T, rate, channels, bitDepth int, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{SampleRate: rate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	return path
}

func sineSamples(frames int, amplitude float64, cycles float64, scale int) []int {
	out := make([]int, frames)
	for i := range out {
		out[i] = int(amplitude * float64(scale) * math.Sin(2*math.Pi*cycles*float64(i)/float64(frames)))
	}
	return out
}

// sineFrames returns 16-bit stereo frames of a sine completing cycles over n frames.
func sineFrames(n int, amplitude, cycles float64) []byte {
	b := make([]byte, n*bytesPerFrame)
	for i := 0; i < n; i++ {
		v := int16(amplitude * 32767 * math.Sin(2*math.Pi*cycles*float64(i)/float64(n)))
		binary.LittleEndian.PutUint16(b[i*bytesPerFrame:], uint16(v))
		binary.LittleEndian.PutUint16(b[i*bytesPerFrame+2:], uint16(v))
	}
	return b
}

func TestStream_ResamplesToOutputRate(t *testing.T) {
	path := writeWAV(t, 22050, 1, 16, sineSamples(22050, 0.5, 440, 32767))
	tap := ringbuffer.New(1024)

	s, err := openStream(path, OutputSampleRate, tap)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, time.Second, s.Duration())
	assert.Equal(t, 22050, s.SampleRate())

	out, err := io.ReadAll(s)
	require.NoError(t, err)
	frames := len(out) / bytesPerFrame
	assert.InDelta(t, OutputSampleRate, frames, 4)
	assert.Zero(t, len(out)%bytesPerFrame)
	assert.True(t, s.Done())

	// mono is duplicated to both channels
	left := int16(binary.LittleEndian.Uint16(out[400:]))
	right := int16(binary.LittleEndian.Uint16(out[402:]))
	assert.Equal(t, left, right)

	assert.Equal(t, tap.Capacity(), tap.Length(), "tap keeps the latest frames")
}

func TestStream_Seek(t *testing.T) {
	path := writeWAV(t, OutputSampleRate, 2, 16, make([]int, 2*OutputSampleRate*2))
	s, err := openStream(path, OutputSampleRate, ringbuffer.New(1024))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 2*time.Second, s.Duration())

	off, err := s.Seek(s.offsetOf(1500*time.Millisecond), io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(66150*bytesPerFrame), off)
	assert.Equal(t, 1500*time.Millisecond, s.Played())

	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.InDelta(t, 22050, len(rest)/bytesPerFrame, 2)

	off, err = s.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(2*OutputSampleRate*bytesPerFrame), off)
	assert.True(t, s.Done())

	require.NoError(t, s.Close())
	_, err = s.Read(make([]byte, 64))
	assert.ErrorIs(t, err, errStreamClosed)
}

func TestStream_RejectsInvalidFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o600))

	_, err := openStream(path, OutputSampleRate, ringbuffer.New(64))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = openStream(filepath.Join(t.TempDir(), "missing.wav"), OutputSampleRate, ringbuffer.New(64))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStream_BitDepths(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		half     int // half of full scale in the file encoding
	}{
		{"8-bit unsigned", 8, 128 + 64},
		{"16-bit", 16, 1 << 14},
		{"24-bit", 24, 1 << 22},
		{"32-bit", 32, 1 << 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]int, 64)
			for i := range samples {
				samples[i] = tt.half
			}
			path := writeWAV(t, OutputSampleRate, 1, tt.bitDepth, samples)

			s, err := openStream(path, OutputSampleRate, ringbuffer.New(1024))
			require.NoError(t, err)
			defer s.Close()

			out, err := io.ReadAll(s)
			require.NoError(t, err)
			require.Len(t, out, 64*bytesPerFrame)
			for i := 0; i < len(out); i += 2 {
				assert.InDelta(t, 16384, int16(binary.LittleEndian.Uint16(out[i:])), 1, "sample %d", i/2)
			}
		})
	}
}

func TestStream_SeekBackReadsAgain(t *testing.T) {
	frames := 2 * OutputSampleRate
	samples := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		samples[2*i] = i % 30000
		samples[2*i+1] = i % 30000
	}
	path := writeWAV(t, OutputSampleRate, 2, 16, samples)

	s, err := openStream(path, OutputSampleRate, ringbuffer.New(1024))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Seek(s.offsetOf(time.Second), io.SeekStart)
	require.NoError(t, err)
	tail, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Len(t, tail, OutputSampleRate*bytesPerFrame)
	assert.InDelta(t, OutputSampleRate%30000, int16(binary.LittleEndian.Uint16(tail)), 2)

	_, err = s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	all, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Len(t, all, frames*bytesPerFrame, "a rewind reads the whole data chunk again")
	assert.InDelta(t, 0, int16(binary.LittleEndian.Uint16(all)), 2)
	assert.InDelta(t, 1000, int16(binary.LittleEndian.Uint16(all[1000*bytesPerFrame:])), 2)
}

func TestResolvePath(t *testing.T) {
	path, err := resolvePath("file:///music/song.wav")
	require.NoError(t, err)
	assert.Equal(t, "/music/song.wav", path)

	path, err = resolvePath("relative/song.WAV")
	require.NoError(t, err)
	assert.Equal(t, "relative/song.WAV", path)

	_, err = resolvePath("https://example.com/song.wav")
	assert.ErrorIs(t, err, errUnsupportedScheme)

	_, err = resolvePath("/music/song.mp3")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = resolvePath("")
	assert.ErrorIs(t, err, domain.ErrNoSource)
}

func TestReadTitle_FallsBackToFileName(t *testing.T) {
	path := writeWAV(t, 8000, 1, 16, make([]int, 80))
	assert.Equal(t, "tone", readTitle(path))
	assert.Equal(t, "gone", readTitle("/nowhere/gone.wav"))
}

func TestAnalyser_SinePeak(t *testing.T) {
	a := newAnalyser(256, 0)
	tap := ringbuffer.New(4096)
	a.attach(tap)

	_, err := tap.Write(sineFrames(256, 0.5, 16))
	require.NoError(t, err)

	data := make([]byte, a.FrequencyBinCount())
	a.ByteFrequencyData(data)

	peak := 0
	for i, v := range data {
		if v > data[peak] {
			peak = i
		}
	}
	assert.Equal(t, 16, peak)
	assert.Equal(t, byte(255), data[16])
	assert.Less(t, data[100], data[16])
	assert.Zero(t, tap.Length(), "frames are drained from the tap")
}

func TestAnalyser_SilenceAndSmoothing(t *testing.T) {
	a := newAnalyser(256, 0.8)
	data := make([]byte, 128)

	a.ByteFrequencyData(data)
	assert.Equal(t, make([]byte, 128), data, "no tap means silence")

	tap := ringbuffer.New(4096)
	a.attach(tap)
	_, _ = tap.Write(sineFrames(256, 0.5, 16))
	a.ByteFrequencyData(data)
	first := data[16]

	// Same signal again, the smoothed level keeps rising
	_, _ = tap.Write(sineFrames(256, 0.5, 16))
	a.ByteFrequencyData(data)
	assert.Greater(t, data[16], first)

	a.Disconnect()
	_, _ = tap.Write(sineFrames(256, 0.5, 16))
	a.ByteFrequencyData(data)
	assert.Equal(t, 256*bytesPerFrame, tap.Length(), "disconnected analyser stops reading")
}

func TestToByte(t *testing.T) {
	assert.Equal(t, byte(0), toByte(0))
	assert.Equal(t, byte(0), toByte(1e-6))  // -120 dB
	assert.Equal(t, byte(255), toByte(0.1)) // -20 dB
	assert.InDelta(t, 127, int(toByte(math.Pow(10, -65.0/20))), 1)
}

func TestPlatform_SourceBinding(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlatform(logger.NewTestLogger(), out)
	el := NewMediaElement(logger.NewTestLogger(), out)
	defer el.Close()

	c1, err := p.NewContext()
	require.NoError(t, err)
	assert.Equal(t, domain.ContextSuspended, c1.State())
	assert.Equal(t, OutputSampleRate, c1.SampleRate())

	a, err := c1.CreateAnalyser(512, 0.6)
	require.NoError(t, err)
	assert.Equal(t, 256, a.FrequencyBinCount())

	src, err := c1.CreateMediaElementSource(el)
	require.NoError(t, err)
	require.NoError(t, src.Connect(a))

	c2, _ := p.NewContext()
	_, err = c2.CreateMediaElementSource(el)
	assert.ErrorIs(t, err, domain.ErrSourceAlreadyConnected)

	require.NoError(t, c1.Close())
	assert.ErrorIs(t, c1.Close(), domain.ErrContextClosed)
	assert.ErrorIs(t, c1.Resume(context.Background()), domain.ErrContextClosed)

	_, err = c2.CreateMediaElementSource(el)
	assert.NoError(t, err, "closing the owner releases the element")
}

func TestPlatform_Validation(t *testing.T) {
	p := NewPlatform(logger.NewTestLogger(), &fakeOutput{})
	c, _ := p.NewContext()

	_, err := c.CreateAnalyser(100, 0.5)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	_, err = c.CreateAnalyser(256, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = c.CreateMediaElementSource(nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Resume(ctx), context.Canceled)
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.MediaEvent
}

func (l *eventLog) add(e domain.MediaEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) has(typ domain.MediaEventType) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestMediaElement_LoadPlayEnd(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	out := &fakeOutput{}
	el := NewMediaElement(logger.NewTestLogger(), out)
	defer el.Close()

	log := &eventLog{}
	el.SetListener(log.add)

	path := writeWAV(t, OutputSampleRate, 2, 16, make([]int, OutputSampleRate))
	el.SetSource("file://" + path)

	require.Eventually(t, func() bool { return log.has(domain.MediaLoadedMetadata) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, el.Duration())
	assert.Equal(t, "tone", el.Title())
	assert.True(t, el.Paused())

	el.SetVolume(0.4)
	require.NoError(t, el.Play(context.Background()))
	player := out.last()
	require.NotNil(t, player)
	assert.True(t, player.IsPlaying())
	assert.Equal(t, 0.4, player.Volume())

	el.SetMuted(true)
	assert.Zero(t, player.Volume())
	el.SetMuted(false)
	assert.Equal(t, 0.4, player.Volume())

	require.NoError(t, el.Seek(250*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, el.CurrentTime())
	assert.ErrorIs(t, el.Seek(time.Second), domain.ErrInvalidSeek)

	_, err := player.drain()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return log.has(domain.MediaEnded) }, time.Second, 5*time.Millisecond)
	assert.True(t, el.Paused())

	// Playing after the end restarts from the beginning
	require.NoError(t, el.Play(context.Background()))
	assert.Zero(t, el.CurrentTime())
}

func TestMediaElement_SourceChangeDropsPendingEvents(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	el := NewMediaElement(logger.NewTestLogger(), &fakeOutput{})
	defer el.Close()

	log := &eventLog{}
	el.SetListener(log.add)

	path := writeWAV(t, OutputSampleRate, 2, 16, make([]int, OutputSampleRate))

	// Events of the previous source still waiting for the event goroutine
	el.mu.Lock()
	el.queue = append(el.queue,
		domain.MediaEvent{Type: domain.MediaTimeUpdate, CurrentTime: time.Second},
		domain.MediaEvent{Type: domain.MediaEnded})
	el.loadLocked("file://" + path)
	el.mu.Unlock()

	require.Eventually(t, func() bool { return log.has(domain.MediaLoadedMetadata) }, time.Second, 5*time.Millisecond)
	assert.False(t, log.has(domain.MediaEnded))
	assert.False(t, log.has(domain.MediaTimeUpdate))
}

func TestMediaElement_LoadError(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	el := NewMediaElement(logger.NewTestLogger(), &fakeOutput{})
	defer el.Close()

	log := &eventLog{}
	el.SetListener(log.add)

	assert.ErrorIs(t, el.Play(context.Background()), domain.ErrNoSource)

	el.SetSource("file:///does/not/exist.wav")
	require.Eventually(t, func() bool { return log.has(domain.MediaError) }, time.Second, 5*time.Millisecond)

	err := el.Play(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.ErrorIs(t, el.Seek(0), domain.ErrNotLoaded)
}

func TestMediaElement_Close(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	el := NewMediaElement(logger.NewTestLogger(), &fakeOutput{})
	require.NoError(t, el.Close())
	require.NoError(t, el.Close())

	el.SetSource("file:///a.wav")
	assert.Empty(t, el.Source())
	assert.Error(t, el.Play(context.Background()))
}
