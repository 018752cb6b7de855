package audio

import (
	"fmt"
	"math"

	apperrors "github.com/skillsenselab/audiopipe/errors"
)

// DefaultMaxChunkSeconds is the largest sub-clip duration the speech-to-text
// provider accepts in a single request.
const DefaultMaxChunkSeconds = 300.0

// NewAsset decodes raw audio bytes in the declared format and derives the
// asset's duration.
func NewAsset(data []byte, format Format) (*Asset, error) {
	switch format {
	case FormatWAV:
		f, err := decodeWAV(data)
		if err != nil {
			return nil, err
		}
		d := f.duration()
		if d <= 0 {
			return nil, apperrors.InvalidDuration(d)
		}
		return &Asset{Data: data, Format: format, Duration: d}, nil
	default:
		return nil, apperrors.Decode(string(format), fmt.Errorf("unsupported format %q", format))
	}
}

// Segmenter splits an Asset into bounded-duration chunks.
type Segmenter struct {
	// MaxChunkSeconds bounds each chunk's duration. Zero means
	// DefaultMaxChunkSeconds.
	MaxChunkSeconds float64
}

// Segment splits the asset into chunks of at most MaxChunkSeconds each.
//
// An asset that already fits in one chunk is passed through untouched, no
// re-encode. Otherwise the asset is cut into ceil(duration/max) contiguous
// intervals; a final chunk shorter than the others is retained as-is.
func (s *Segmenter) Segment(asset *Asset) ([]Chunk, error) {
	maxSec := s.MaxChunkSeconds
	if maxSec <= 0 {
		maxSec = DefaultMaxChunkSeconds
	}

	if asset.Duration <= 0 {
		return nil, apperrors.InvalidDuration(asset.Duration)
	}

	if asset.Duration <= maxSec {
		return []Chunk{{
			Data:  asset.Data,
			Index: 0,
			Start: 0,
			End:   asset.Duration,
		}}, nil
	}

	f, err := decodeWAV(asset.Data)
	if err != nil {
		return nil, err
	}

	numChunks := int(math.Ceil(asset.Duration / maxSec))
	chunks := make([]Chunk, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := float64(i) * maxSec
		end := math.Min(start+maxSec, asset.Duration)
		chunks = append(chunks, Chunk{
			Data:  f.slice(start, end),
			Index: i,
			Start: start,
			End:   end,
		})
	}

	return chunks, nil
}
