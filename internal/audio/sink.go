package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Sink is the output device that pulls frames from the graph. Starting and
// stopping it is what runs or freezes the graph clock.
type Sink interface {
	Start() error
	Stop() error
	Close() error
}

// SinkFactory opens a sink that renders from g.
type SinkFactory func(g *Graph) (Sink, error)

type portaudioSink struct {
	stream  *portaudio.Stream
	scratch [][2]float64
	graph   *Graph
}

// OpenPortAudio opens the default output device: no inputs, stereo out.
func OpenPortAudio(g *Graph) (Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}

	s := &portaudioSink{
		scratch: make([][2]float64, FramesPerBuffer),
		graph:   g,
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(SampleRate), FramesPerBuffer, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	s.stream = stream
	return s, nil
}

func (s *portaudioSink) process(out [][]float32) {
	n := len(out[0])
	if n > len(s.scratch) {
		s.scratch = make([][2]float64, n)
	}
	buf := s.scratch[:n]
	s.graph.Render(buf)
	for i, f := range buf {
		out[0][i] = float32(f[0])
		out[1][i] = float32(f[1])
	}
}

func (s *portaudioSink) Start() error {
	s.graph.Resume()
	if err := s.stream.Start(); err != nil {
		s.graph.Suspend()
		return fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	return nil
}

func (s *portaudioSink) Stop() error {
	s.graph.Suspend()
	return s.stream.Stop()
}

func (s *portaudioSink) Close() error {
	s.graph.Suspend()
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}
