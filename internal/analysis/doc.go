// Package analysis provides signal and cycle analysis tools.
//
// The package includes tools for checking what the engine produces:
//
//   - [Welch]: averaged power spectrum of a sampled signal
//   - [SpectralSlope]: log-log slope of a spectrum in dB per octave
//   - [DCBias]: mean offset of a signal
//   - [GeneratePortrait]: expansion against its rate over a breathing cycle
//
// # Noise Colour
//
// Pink noise falls by about 3 dB per octave:
//
//	psd := analysis.Welch(samples, 44100, 4096)
//	slope, _ := analysis.SpectralSlope(psd, 100, 5000)
//	if math.Abs(slope+3) < 1 {
//	    // pink
//	}
package analysis
