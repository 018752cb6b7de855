package transcription

// Segment is one diarized utterance with asset- or chunk-relative timestamps.
type Segment struct {
	// StartTime is the utterance start in seconds.
	StartTime float64 `json:"start_time"`

	// EndTime is the utterance end in seconds.
	EndTime float64 `json:"end_time"`

	// SpeakerLabel is the provider-assigned speaker label (e.g. "spk_0").
	// Labels are stable only within a single chunk's diarization; the
	// provider does not guarantee cross-chunk speaker identity.
	SpeakerLabel string `json:"speaker_label"`

	// Transcript is the utterance text in the detected language.
	Transcript string `json:"transcript"`

	// TranslatedTranscript is the English translation when one was
	// requested and produced; empty otherwise.
	TranslatedTranscript string `json:"translated_transcript,omitempty"`
}

// ChunkResult is the normalized outcome of transcribing one audio chunk.
type ChunkResult struct {
	// Segments are the diarized utterances in provider order.
	Segments []Segment `json:"segments"`

	// Transcript is the full concatenated transcript of the chunk.
	Transcript string `json:"transcript"`

	// TranslatedTranscript is the English translation of Transcript, empty
	// when no translation was needed or produced.
	TranslatedTranscript string `json:"translated_transcript,omitempty"`

	// LanguageCode is the provider-detected language (e.g. "hi-IN").
	LanguageCode string `json:"language_code"`
}
