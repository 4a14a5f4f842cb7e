package chipbox

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RenderOptions configures an offline render of one track.
type RenderOptions struct {
	Track      int // 1-based
	Duration   time.Duration
	SampleRate int
	Tempo      float64
	MuteMask   int
	Accurate   bool
	// Loop renders past the track length instead of stopping with a fade.
	Loop bool
}

// Rate is the sample rate a render with these options uses.
func (o RenderOptions) Rate() int {
	if o.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return o.SampleRate
}

// RenderTrack renders a track of an already loaded file without an audio device.
// Rendering stops early when the track ends.
func RenderTrack(data []byte, opts RenderOptions) ([]float32, error) {
	rate := opts.Rate()
	p, err := NewPlayer(WithSampleRate(rate), WithOutput(OutputNone))
	if err != nil {
		return nil, err
	}
	if err := p.LoadData(data); err != nil {
		return nil, err
	}
	p.SetFadeout(!opts.Loop)
	if opts.Tempo > 0 {
		p.SetTempo(opts.Tempo)
	}
	p.MuteVoices(opts.MuteMask)
	p.EnableAccuracy(opts.Accurate)
	if err := p.StartTrack(opts.Track - 1); err != nil {
		return nil, err
	}

	dur := opts.Duration
	if dur <= 0 {
		// The track length is song time; a slower tempo stretches it.
		dur = p.TrackInfo().Length
		if opts.Tempo > 0 {
			dur = time.Duration(float64(dur) / opts.Tempo)
		}
	}
	frames := int(dur.Seconds() * float64(rate))
	out := make([]float32, 0, frames*2)
	chunk := make([]float32, 1024*2)
	for rendered := 0; rendered < frames && !p.TrackEnded(); {
		n := min(len(chunk)/2, frames-rendered)
		p.Process(chunk[:n*2])
		out = append(out, chunk[:n*2]...)
		rendered += n
	}
	return out, nil
}

// WriteWAV encodes interleaved stereo samples as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(toInt16(s))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return enc.Close()
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return peak
}
