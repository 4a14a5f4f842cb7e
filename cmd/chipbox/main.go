package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/cbegin/chipbox"
	"github.com/cbegin/chipbox/internal/device"
	"github.com/cbegin/chipbox/internal/input"
	"github.com/cbegin/chipbox/internal/media"
	"github.com/cbegin/chipbox/internal/scope"
	"github.com/cbegin/chipbox/internal/session"
	"github.com/cbegin/chipbox/internal/settings"
)

const defaultPath = "test.mml"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		inMemory   = flag.Bool("m", false, "read the whole file into memory before loading it")
		headless   = flag.Bool("headless", false, "play without a window, reading keys from the terminal")
		maxGain    = flag.Int("max-gain", session.MaxGain, "upper bound of the output gain (0 selects the narrow profile)")
		sampleRate = flag.Int("sample-rate", chipbox.DefaultSampleRate, "output sample rate")
	)
	flag.Parse()
	path := defaultPath
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if *headless {
		logger.SetOutput(crlfWriter{os.Stderr})
	}

	queue := &input.Queue{}
	announcer, closeMedia := openMedia(queue, logger)
	defer closeMedia()

	volume, err := device.OpenVolume(device.VolumePath)
	if err != nil {
		logger.Printf("[DEVICE] volume control unavailable: %v", err)
	}
	defer volume.Close()

	output := chipbox.OutputEbiten
	if *headless {
		output = chipbox.OutputOto
	}
	player, playerErr := chipbox.NewPlayer(chipbox.WithSampleRate(*sampleRate), chipbox.WithOutput(output))
	var engine session.Engine
	if playerErr == nil {
		engine = player
		defer player.Close()
	}

	var renderer session.Renderer
	var ui *scope.Renderer
	if *headless {
		renderer = scope.NewLogRenderer(logger)
	} else {
		ui = scope.NewRenderer()
		renderer = ui
	}

	opts := []session.Option{
		session.WithVolume(volume),
		session.WithBrightness(device.NewBrightness(device.BrightnessPath)),
		session.WithAnnouncer(announcer),
		session.WithLogger(logger),
		session.WithMaxGain(*maxGain),
	}
	if !*headless {
		opts = append(opts, session.WithWindow(windowCaption{}))
	}
	ctl := session.New(engine, renderer, opts...)

	if playerErr != nil {
		ctl.Fail(playerErr)
	} else {
		s := settings.NewLoader(settings.WithLogger(logger)).Load(context.Background())
		if err := ctl.Start(path, *inMemory, session.Settings(s)); err != nil {
			ctl.Fail(err)
		}
	}

	if *headless {
		return runHeadless(ctl, queue, logger)
	}
	return runWindow(ctl, ui, queue)
}

// openMedia exports the desktop media session. Without one the player runs as usual.
func openMedia(queue *input.Queue, logger *log.Logger) (*media.Announcer, func()) {
	sess, err := media.NewSession()
	if err != nil {
		logger.Printf("[MEDIA] Warning: failed to initialize media session: %v", err)
		sess = media.NewNoOpSession()
	}
	sess.SetCommandHandler(media.Forward(queue))
	return media.NewAnnouncer(sess, logger), func() { _ = sess.Close() }
}
