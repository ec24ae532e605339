package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/breathsim/internal/analysis"
	"github.com/san-kum/breathsim/internal/audio"
	"github.com/san-kum/breathsim/internal/sim"
)

var withMusic bool

const welchSegment = 4096

// renderAudio runs the loop against an offline engine, pulling one frame's
// worth of samples after every tick.
func renderAudio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Duration = wavSeconds

	engine := audio.NewOffline(audio.Options{
		Logger: log,
		Tracks: cfg.TrackSources(),
		Rand:   rand.New(rand.NewSource(cfg.Seed)),
	})
	defer engine.Close()

	ac := cfg.AudioConfig()
	ac.Enabled = true
	track := ac.TrackID
	ac.TrackID = ""
	if err := engine.Apply(ac); err != nil {
		return err
	}
	if withMusic && track != "" {
		if err := engine.LoadTrack(cmd.Context(), track); err != nil {
			var ae *audio.AssetError
			if !errors.As(err, &ae) {
				return err
			}
			log.Warn("rendering without music", zap.Error(err))
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	pump := sim.NewPumpScheduler()
	l, err := sim.New(cfg.Settings(), sim.Options{
		Scheduler: pump,
		Audio:     engine,
		Rand:      rand.New(rand.NewSource(cfg.Seed)),
		Logger:    log,
		Width:     cfg.Width,
		Height:    cfg.Height,
	})
	if err != nil {
		return err
	}

	rate := float64(audio.SampleRate)
	total := audio.SampleRate.N(simDuration(cfg.Duration))
	buf := make([][2]float64, total)
	dt := time.Duration(float64(time.Second) / cfg.FPS)

	start := time.Unix(0, 0)
	l.StartAt(start)
	pos, frame := 0, 0
	for pos < total {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		frame++
		pump.Fire(start.Add(time.Duration(frame) * dt))
		end := min(int(math.Round(float64(frame)*rate/cfg.FPS)), total)
		engine.Render(buf[pos:end])
		pos = end
	}
	l.Stop()

	f, err := os.Create(wavOut)
	if err != nil {
		return err
	}
	defer f.Close()

	format := beep.Format{SampleRate: audio.SampleRate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, bufferStreamer(buf), format); err != nil {
		return err
	}

	st := engine.Stats()
	log.Info("audio rendered", zap.String("out", wavOut), zap.Int("frames", frame), zap.Uint64("pings", st.PingsPlayed))
	fmt.Printf("wrote %s: %gs, %d pings, transitions %d\n", wavOut, cfg.Duration, st.PingsPlayed, l.Transitions())
	return nil
}

func bufferStreamer(buf [][2]float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(buf) {
			return 0, false
		}
		n := copy(samples, buf[pos:])
		pos += n
		return n, true
	})
}

func analyseNoise(cmd *cobra.Command, args []string) error {
	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rate := int(audio.SampleRate)
	noise := audio.PinkNoise(rand.New(rand.NewSource(s)), rate, noiseSeconds)

	psd := analysis.Welch(noise, float64(rate), welchSegment)
	slope, r2 := analysis.SpectralSlope(psd, 20, 5000)

	fmt.Printf("samples: %d  seed: %d\n", len(noise), s)
	fmt.Printf("dc bias: %.6f\n", analysis.DCBias(noise))
	fmt.Printf("rms: %.6f\n", analysis.RMS(noise))
	fmt.Printf("spectral slope: %.2f dB/octave (r² %.3f, pink is about -3)\n\n", slope, r2)

	var db []float64
	for i, f := range psd.Freqs {
		if f < 20 || f > 5000 || psd.Power[i] <= 0 {
			continue
		}
		db = append(db, 10*math.Log10(psd.Power[i]))
	}
	if len(db) > 1 {
		fmt.Println(asciigraph.Plot(db, asciigraph.Height(12), asciigraph.Width(70), asciigraph.Caption("power (dB), 20 Hz to 5 kHz")))
	}
	return nil
}
