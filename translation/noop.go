package translation

import "context"

// Noop is a Translator that never translates. Used when no translation
// provider is configured.
type Noop struct{}

// Translate always returns "".
func (Noop) Translate(ctx context.Context, text, sourceLanguage string) string {
	return ""
}
