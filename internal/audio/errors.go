package audio

import (
	"errors"
	"fmt"
)

var (
	ErrAudioUnavailable = errors.New("audio: output device unavailable")
	ErrAssetDecode      = errors.New("audio: cannot decode asset")
	ErrAssetFetch       = errors.New("audio: cannot fetch asset")
	ErrUnknownTrack     = errors.New("audio: unknown track")
	ErrStaleLoad        = errors.New("audio: track load superseded")
	ErrClosed           = errors.New("audio: engine closed")
)

// AssetError reports a failed track load.
type AssetError struct {
	TrackID string
	Wrapped error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("track %q: %v", e.TrackID, e.Wrapped)
}

func (e *AssetError) Unwrap() error { return e.Wrapped }
