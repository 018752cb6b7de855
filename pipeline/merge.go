package pipeline

import (
	"sort"
	"strings"

	"github.com/skillsenselab/audiopipe/audio"
	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/transcription"
)

// merge folds per-chunk outcomes into one Result. It always walks chunks in
// index order, so completion order never leaks into the output.
func (p *Pipeline) merge(chunks []audio.Chunk, outcomes []chunkOutcome) *Result {
	result := &Result{
		Segments:           []transcription.Segment{},
		FailedChunkIndices: []int{},
	}

	var transcripts []string
	var translated []string
	succeeded := 0

	for i, outcome := range outcomes {
		if outcome.err != nil {
			result.FailedChunkIndices = append(result.FailedChunkIndices, chunks[i].Index)
			result.FailedChunks = append(result.FailedChunks, FailedChunk{
				Index: chunks[i].Index,
				Code:  apperrors.CodeOf(outcome.err),
				Error: outcome.err.Error(),
			})
			continue
		}

		succeeded++
		cr := outcome.result

		if result.LanguageCode == "" {
			result.LanguageCode = cr.LanguageCode
		}
		if cr.Transcript != "" {
			transcripts = append(transcripts, cr.Transcript)
		}
		if cr.TranslatedTranscript != "" {
			translated = append(translated, cr.TranslatedTranscript)
		}

		// Rebase chunk-relative times onto the asset's timeline.
		for _, seg := range cr.Segments {
			seg.StartTime += chunks[i].Start
			seg.EndTime += chunks[i].Start
			result.Segments = append(result.Segments, seg)
		}
	}

	// Chunk intervals are contiguous so appending in index order already
	// yields ascending times; the stable sort keeps chunk index and
	// intra-chunk order as tie-breaks.
	sort.SliceStable(result.Segments, func(a, b int) bool {
		return result.Segments[a].StartTime < result.Segments[b].StartTime
	})

	result.Transcript = strings.Join(transcripts, " ")
	if len(translated) > 0 {
		merged := strings.Join(translated, " ")
		result.TranslatedTranscript = &merged
	}

	switch {
	case succeeded == len(outcomes):
		result.Status = StatusSuccess
	case succeeded > 0:
		result.Status = StatusPartial
	default:
		result.Status = StatusFailed
	}

	return result
}
