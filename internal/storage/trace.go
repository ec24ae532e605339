package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/breathsim/internal/render"
)

// Sample is one row of trace.csv.
type Sample struct {
	Elapsed   float64 `csv:"elapsed_ms" json:"elapsed_ms"`
	Stage     string  `csv:"stage" json:"stage"`
	Progress  float64 `csv:"progress" json:"progress"`
	Expansion float64 `csv:"expansion" json:"expansion"`
	Radius    float64 `csv:"radius" json:"radius"`
	Particles int     `csv:"particles" json:"particles"`
	Phase     string  `csv:"phase" json:"phase"`
	Counter   string  `csv:"counter" json:"counter"`
}

// Recorder collects a sample from every Every-th observed frame.
type Recorder struct {
	Every   int
	seen    int
	samples []Sample
}

func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{Every: every}
}

func (r *Recorder) OnFrame(f render.Frame) {
	r.seen++
	if (r.seen-1)%r.Every != 0 {
		return
	}
	r.samples = append(r.samples, Sample{
		Elapsed:   f.Elapsed,
		Stage:     f.State.Stage.String(),
		Progress:  f.State.Progress,
		Expansion: f.State.Expansion(),
		Radius:    f.Radius,
		Particles: len(f.Particles),
		Phase:     f.Phase.Value,
		Counter:   f.Counter.Value,
	})
}

func (r *Recorder) Samples() []Sample { return r.samples }

// Column extracts one numeric series for plotting.
func Column(samples []Sample, pick func(Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = pick(s)
	}
	return out
}

// Export is the JSON form of a run.
type Export struct {
	Meta    RunMetadata `json:"meta"`
	Samples []Sample    `json:"samples"`
}

func ExportJSON(w io.Writer, meta RunMetadata, samples []Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export{Meta: meta, Samples: samples})
}
