package sarvam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/httpclient"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/transcription"
)

const (
	// ProviderName is the registered name for the Sarvam provider.
	ProviderName = "sarvam"

	defaultBaseURL = "https://api.sarvam.ai"

	speechToTextPath = "/speech-to-text"

	apiKeyHeader = "api-subscription-key"
)

// Config holds configuration for the Sarvam speech-to-text provider.
type Config struct {
	// BaseURL is the API endpoint. Defaults to the public Sarvam API.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the subscription key sent with every request.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// HTTP configures the phase-scoped request timeouts.
	HTTP httpclient.Config `yaml:"http" mapstructure:"http"`
}

// Provider implements transcription.Provider against the Sarvam
// speech-to-text API.
type Provider struct {
	client *httpclient.Client
	log    *logger.Logger
}

// NewProvider creates a Sarvam provider.
//
// Each request rides its own connection (keep-alives disabled) so no
// transport state carries over between consecutive asset jobs.
func NewProvider(cfg Config, log *logger.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sarvam: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	httpCfg := cfg.HTTP
	httpCfg.BaseURL = cfg.BaseURL
	httpCfg.DisableKeepAlives = true
	httpCfg.Auth = httpclient.APIKeyAuthHeader(apiKeyHeader, cfg.APIKey)

	client, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, fmt.Errorf("sarvam: build http client: %w", err)
	}

	return &Provider{
		client: client,
		log:    log.WithComponent("sarvam"),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// response mirrors the provider payload. Required fields are pointers so a
// missing field is distinguishable from a zero value and fails fast.
type response struct {
	Transcript         *string             `json:"transcript"`
	LanguageCode       *string             `json:"language_code"`
	DiarizedTranscript *diarizedTranscript `json:"diarized_transcript"`
}

type diarizedTranscript struct {
	Entries []diarizedEntry `json:"entries"`
}

type diarizedEntry struct {
	StartTimeSeconds *float64 `json:"start_time_seconds"`
	EndTimeSeconds   *float64 `json:"end_time_seconds"`
	SpeakerID        *string  `json:"speaker_id"`
	Transcript       *string  `json:"transcript"`
}

// Transcribe sends one chunk's audio to the speech-to-text endpoint.
func (p *Provider) Transcribe(ctx context.Context, audioData []byte, opts transcription.Options) (*transcription.ChunkResult, error) {
	opts.ApplyDefaults()

	body := httpclient.NewMultipartBody().
		AddFile("file", "audio.wav", "audio/wav", bytes.NewReader(audioData)).
		AddField("model", opts.Model).
		AddField("with_diarization", strconv.FormatBool(opts.Diarization)).
		AddField("with_timestamps", strconv.FormatBool(opts.Timestamps))

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   speechToTextPath,
		Body:   body,
	})
	if err != nil {
		return nil, p.classify(err)
	}

	return p.parse(resp.Body, opts)
}

// classify maps transport and status errors to the pipeline's error taxonomy.
func (p *Provider) classify(err error) error {
	switch {
	case httpclient.IsTimeout(err):
		return apperrors.ProviderTimeout(ProviderName, err)
	case httpclient.StatusOf(err) > 0:
		return apperrors.ProviderHTTP(ProviderName, httpclient.StatusOf(err), string(httpclient.BodyOf(err)))
	default:
		return apperrors.ProviderRequest(ProviderName, err)
	}
}

// parse decodes a 2xx payload into a ChunkResult, failing fast when required
// fields are absent.
func (p *Provider) parse(raw []byte, opts transcription.Options) (*transcription.ChunkResult, error) {
	var payload response
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.MalformedResponse(ProviderName, "body").WithCause(err)
	}
	if payload.Transcript == nil {
		return nil, apperrors.MalformedResponse(ProviderName, "transcript")
	}
	if payload.LanguageCode == nil {
		return nil, apperrors.MalformedResponse(ProviderName, "language_code")
	}

	result := &transcription.ChunkResult{
		Transcript:   *payload.Transcript,
		LanguageCode: *payload.LanguageCode,
	}

	if opts.Diarization {
		if payload.DiarizedTranscript == nil {
			return nil, apperrors.MalformedResponse(ProviderName, "diarized_transcript")
		}
		result.Segments = make([]transcription.Segment, 0, len(payload.DiarizedTranscript.Entries))
		for i, entry := range payload.DiarizedTranscript.Entries {
			if entry.StartTimeSeconds == nil || entry.EndTimeSeconds == nil || entry.SpeakerID == nil || entry.Transcript == nil {
				return nil, apperrors.MalformedResponse(ProviderName, fmt.Sprintf("diarized_transcript.entries[%d]", i))
			}
			result.Segments = append(result.Segments, transcription.Segment{
				StartTime:    *entry.StartTimeSeconds,
				EndTime:      *entry.EndTimeSeconds,
				SpeakerLabel: "spk_" + *entry.SpeakerID,
				Transcript:   *entry.Transcript,
			})
		}
	}

	p.log.Debug("transcription complete", logger.Fields(
		logger.FieldLanguage, result.LanguageCode,
		"segments", len(result.Segments),
	))

	return result, nil
}
