package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

const resampleQuality = 4

// fetch reads a track from a local path or an http(s) URL.
func fetch(ctx context.Context, client *http.Client, location string) ([]byte, error) {
	if !isURL(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetFetch, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetFetch, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrAssetFetch, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetFetch, err)
	}
	return data, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func extension(location string) string {
	if isURL(location) {
		if u, err := url.Parse(location); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(path.Ext(location))
}

// decode turns encoded bytes into a looping stereo stream at SampleRate.
// The whole track is decoded up front so the render side never touches
// the decoder.
func decode(location string, data []byte) (beep.Streamer, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch ext := extension(location); ext {
	case ".mp3":
		s, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case ".wav":
		s, format, err = wav.Decode(bytes.NewReader(data))
	case ".flac":
		s, format, err = flac.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrAssetDecode, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetDecode, err)
	}
	defer s.Close()

	var src beep.Streamer = s
	if format.SampleRate != SampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, SampleRate, s)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2})
	buf.Append(src)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetDecode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: empty stream", ErrAssetDecode)
	}
	return beep.Loop(-1, buf.Streamer(0, buf.Len())), nil
}
