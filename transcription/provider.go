package transcription

import "context"

// DefaultModel is the speech-to-text model used when none is configured.
const DefaultModel = "saarika:v2"

// Options configures a single transcription request.
type Options struct {
	// Model is the provider model identifier. Empty means DefaultModel.
	Model string `yaml:"model" mapstructure:"model"`

	// Diarization requests speaker attribution. Defaults to on.
	Diarization bool `yaml:"diarization" mapstructure:"diarization"`

	// Timestamps requests per-utterance timestamps. Defaults to on.
	Timestamps bool `yaml:"timestamps" mapstructure:"timestamps"`
}

// DefaultOptions returns the standard request options: default model,
// diarization and timestamps enabled.
func DefaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		Diarization: true,
		Timestamps:  true,
	}
}

// ApplyDefaults fills zero-value fields. Diarization and Timestamps are
// booleans and cannot distinguish "unset" from "off", so only Model is
// defaulted here; use DefaultOptions for the full default set.
func (o *Options) ApplyDefaults() {
	if o.Model == "" {
		o.Model = DefaultModel
	}
}

// Provider transcribes a single audio payload.
//
// Implementations issue exactly one provider request per call and perform no
// internal retry; retry ownership lives at the job-dispatch boundary.
type Provider interface {
	// Transcribe sends the audio bytes to the speech-to-text provider and
	// returns the normalized result. Errors are typed: ProviderTimeout for
	// response-await timeouts, ProviderHTTP for non-2xx statuses,
	// MalformedResponse for 2xx payloads missing required fields, and
	// ProviderRequest for everything else.
	Transcribe(ctx context.Context, audioData []byte, opts Options) (*ChunkResult, error)

	// Name returns the provider identifier.
	Name() string
}
