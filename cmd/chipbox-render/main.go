package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cbegin/chipbox"
)

func main() {
	var (
		track      = flag.Int("track", 1, "track number, starting at 1")
		seconds    = flag.Float64("seconds", 0, "seconds to render (0 = the track length)")
		outPath    = flag.String("o", "out.wav", "output WAV file")
		sampleRate = flag.Int("sample-rate", chipbox.DefaultSampleRate, "output sample rate")
		tempo      = flag.Float64("tempo", 1.0, "tempo scale (0.1..2.0)")
		mute       = flag.Int("mute", 0, "channel mute mask, bit 0 = channel 1")
		accurate   = flag.Bool("accurate", false, "band-limited oscillators and stepped volume")
		loop       = flag.Bool("loop", false, "keep looping instead of fading out at the track end")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: chipbox-render [flags] file.mml")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *loop && *seconds <= 0 {
		log.Fatal("-loop needs -seconds")
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	opts := chipbox.RenderOptions{
		Track:      *track,
		Duration:   time.Duration(*seconds * float64(time.Second)),
		SampleRate: *sampleRate,
		Tempo:      *tempo,
		MuteMask:   *mute,
		Accurate:   *accurate,
		Loop:       *loop,
	}
	samples, err := chipbox.RenderTrack(data, opts)
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := chipbox.WriteWAV(f, samples, opts.Rate()); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s: %.2fs, peak %.3f\n", *outPath, float64(len(samples)/2)/float64(opts.Rate()), chipbox.Peak(samples))
}
