package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/skillsenselab/audiopipe/audio"
	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/transcription"
	"github.com/skillsenselab/audiopipe/translation"
)

// Status is the overall outcome of transcribing one asset.
type Status string

const (
	// StatusSuccess means every chunk transcribed successfully.
	StatusSuccess Status = "success"
	// StatusPartial means some chunks succeeded and some failed; the merged
	// transcript reflects only the succeeded chunks.
	StatusPartial Status = "partial"
	// StatusFailed means no chunk succeeded.
	StatusFailed Status = "failed"
)

// FailedChunk records why one chunk failed.
type FailedChunk struct {
	Index int                 `json:"index"`
	Code  apperrors.ErrorCode `json:"code"`
	Error string              `json:"error"`
}

// Result is the merged transcription of one asset. Immutable after
// construction; the job layer owns delivery and persistence.
type Result struct {
	Status Status `json:"status"`

	// Transcript is the concatenated transcript of all succeeded chunks in
	// chunk order, space-separated.
	Transcript string `json:"transcripts"`

	// TranslatedTranscript is the merged English translation, nil when no
	// translation was needed or produced.
	TranslatedTranscript *string `json:"translated_transcript"`

	// Segments are the diarized utterances with asset-relative timestamps,
	// ordered by ascending start time.
	Segments []transcription.Segment `json:"audio_segments"`

	// FailedChunkIndices lists the chunk indices that failed, ascending.
	// Always non-nil so it serializes as [].
	FailedChunkIndices []int `json:"failed_chunk_indices"`

	// FailedChunks carries per-chunk error detail for the failed indices.
	FailedChunks []FailedChunk `json:"failed_chunks,omitempty"`

	// LanguageCode is the detected language of the first succeeded chunk.
	LanguageCode string `json:"language_code,omitempty"`
}

// FailureError condenses a failed result's chunk errors into one classified
// error, so boundary layers can apply retry policy and HTTP mapping to an
// all-chunks-failed outcome the same way they would to a returned error.
// The timeout class applies only when every chunk timed out; a mixed failure
// takes its class from the first retryable non-timeout chunk, falling back
// to the first chunk. Returns nil unless the status is failed.
func (r *Result) FailureError() error {
	if r.Status != StatusFailed {
		return nil
	}
	if len(r.FailedChunks) == 0 {
		return apperrors.Internal(errors.New("failed result carries no chunk errors"))
	}

	allTimeout := true
	for _, fc := range r.FailedChunks {
		if fc.Code != apperrors.ErrCodeProviderTimeout {
			allTimeout = false
			break
		}
	}
	if !allTimeout {
		for _, fc := range r.FailedChunks {
			if fc.Code != apperrors.ErrCodeProviderTimeout && apperrors.IsRetryableCode(fc.Code) {
				return apperrors.FromCode(fc.Code, fc.Error)
			}
		}
	}
	fc := r.FailedChunks[0]
	return apperrors.FromCode(fc.Code, fc.Error)
}

// Pipeline turns raw audio bytes into a merged, diarized, optionally
// translated transcript. It is a pure transform: no storage writes, no
// status tracking, no retry — those belong to the job layer.
type Pipeline struct {
	segmenter  *audio.Segmenter
	provider   transcription.Provider
	translator translation.Translator
	log        *logger.Logger
}

// New creates a pipeline. maxChunkSeconds bounds each chunk's duration; zero
// means audio.DefaultMaxChunkSeconds.
func New(provider transcription.Provider, translator translation.Translator, maxChunkSeconds float64, log *logger.Logger) *Pipeline {
	if translator == nil {
		translator = translation.Noop{}
	}
	return &Pipeline{
		segmenter:  &audio.Segmenter{MaxChunkSeconds: maxChunkSeconds},
		provider:   provider,
		translator: translator,
		log:        log.WithComponent("pipeline"),
	}
}

// chunkOutcome is one chunk's transcription, written into an indexed slot by
// its own goroutine and read only after the fan-in join.
type chunkOutcome struct {
	result *transcription.ChunkResult
	err    error
}

// Transcribe segments the asset, transcribes the chunks concurrently, and
// merges the results in chunk-index order.
//
// A segmentation failure aborts the job; chunk failures are isolated and
// surface through the result's status and failed-chunk records. Overall
// latency is bounded by the slowest chunk, not the sum. A chunk timeout does
// not cancel its siblings, and no asset-level deadline is imposed here; the
// job layer owns that bound.
func (p *Pipeline) Transcribe(ctx context.Context, asset *audio.Asset, opts transcription.Options) (*Result, error) {
	chunks, err := p.segmenter.Segment(asset)
	if err != nil {
		return nil, err
	}
	opts.ApplyDefaults()

	p.log.Info("asset segmented", logger.Fields(
		"duration_seconds", asset.Duration,
		"chunks", len(chunks),
	))

	if len(chunks) == 1 {
		outcome := chunkOutcome{}
		outcome.result, outcome.err = p.transcribeChunk(ctx, chunks[0], opts)
		return p.merge(chunks, []chunkOutcome{outcome}), nil
	}

	outcomes := make([]chunkOutcome, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk audio.Chunk) {
			defer wg.Done()
			outcomes[i].result, outcomes[i].err = p.transcribeChunk(ctx, chunk, opts)
		}(i, chunk)
	}
	wg.Wait()

	return p.merge(chunks, outcomes), nil
}
