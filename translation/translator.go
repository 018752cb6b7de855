package translation

import (
	"context"
	"strings"
)

// Translator rewrites text into English.
//
// Translation is a best-effort enrichment: implementations return an empty
// string on any failure rather than an error, and the failure must never
// fail the transcription that requested it.
type Translator interface {
	// Translate returns the English translation of text, or "" when
	// translation fails.
	Translate(ctx context.Context, text, sourceLanguage string) string
}

// Language codes for which no translation is needed. The speech-to-text
// provider uses two coding conventions, locale-style in requests and bare
// codes in some responses; both are checked. This inconsistency is retained
// deliberately until the provider confirms which convention is authoritative.
var noTranslationNeeded = map[string]struct{}{
	"en-in": {},
	"hi-in": {},
	"en":    {},
	"hi":    {},
}

// NoTranslationNeeded reports whether the detected language already reads as
// English or the pipeline's default language.
func NoTranslationNeeded(languageCode string) bool {
	_, ok := noTranslationNeeded[strings.ToLower(languageCode)]
	return ok
}
