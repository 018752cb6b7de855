package audio

// Format identifies an audio container format.
type Format string

const (
	// FormatWAV is the RIFF/WAVE container with PCM payload.
	FormatWAV Format = "wav"
)

// Asset is an immutable in-memory audio recording.
type Asset struct {
	// Data is the raw encoded audio.
	Data []byte

	// Format is the declared container format.
	Format Format

	// Duration is the total play time in seconds, derived at decode.
	Duration float64
}

// Chunk is a bounded-duration contiguous sub-clip of an Asset.
//
// Chunks produced from one asset are contiguous and non-overlapping: chunk
// i+1 starts exactly where chunk i ends, and together they cover the asset
// from zero to its full duration.
type Chunk struct {
	// Data is the re-encoded sub-clip, playable standalone.
	Data []byte

	// Index is the zero-based position of this chunk within the asset.
	Index int

	// Start is the chunk's start offset in seconds within the parent asset.
	Start float64

	// End is the chunk's end offset in seconds within the parent asset.
	End float64
}

// DurationSeconds returns the chunk's own play time.
func (c Chunk) DurationSeconds() float64 {
	return c.End - c.Start
}
