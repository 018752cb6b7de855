package pipeline

import (
	"context"

	"github.com/skillsenselab/audiopipe/audio"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/transcription"
	"github.com/skillsenselab/audiopipe/translation"
)

// transcribeChunk sends one chunk to the provider and, when the detected
// language needs it, attaches English translations per segment and for the
// whole chunk transcript. No retry here; retry ownership is the job layer's.
func (p *Pipeline) transcribeChunk(ctx context.Context, chunk audio.Chunk, opts transcription.Options) (*transcription.ChunkResult, error) {
	result, err := p.provider.Transcribe(ctx, chunk.Data, opts)
	if err != nil {
		p.log.Warn("chunk transcription failed", logger.Fields(
			logger.FieldChunk, chunk.Index,
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	p.translateChunk(ctx, result)

	p.log.Debug("chunk transcribed", logger.Fields(
		logger.FieldChunk, chunk.Index,
		logger.FieldLanguage, result.LanguageCode,
		"segments", len(result.Segments),
	))

	return result, nil
}

// translateChunk attaches best-effort English translations when the detected
// language is neither English nor Hindi. Translation failures leave the
// translated fields empty and never fail the chunk.
func (p *Pipeline) translateChunk(ctx context.Context, result *transcription.ChunkResult) {
	if translation.NoTranslationNeeded(result.LanguageCode) {
		return
	}

	for i := range result.Segments {
		result.Segments[i].TranslatedTranscript = p.translator.Translate(ctx, result.Segments[i].Transcript, result.LanguageCode)
	}
	result.TranslatedTranscript = p.translator.Translate(ctx, result.Transcript, result.LanguageCode)
}
