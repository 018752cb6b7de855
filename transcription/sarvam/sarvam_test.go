package sarvam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/httpclient"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/transcription"
)

const sampleResponse = `{
	"transcript": "नमस्ते दुनिया",
	"language_code": "hi-IN",
	"diarized_transcript": {
		"entries": [
			{"start_time_seconds": 0.5, "end_time_seconds": 2.1, "speaker_id": "0", "transcript": "नमस्ते"},
			{"start_time_seconds": 2.4, "end_time_seconds": 4.0, "speaker_id": "1", "transcript": "दुनिया"}
		]
	}
}`

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p, err := NewProvider(Config{BaseURL: url, APIKey: "test-key"}, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestTranscribeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/speech-to-text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("api-subscription-key"); got != "test-key" {
			t.Errorf("api key = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "saarika:v2" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("with_diarization"); got != "true" {
			t.Errorf("with_diarization = %q", got)
		}
		if got := r.FormValue("with_timestamps"); got != "true" {
			t.Errorf("with_timestamps = %q", got)
		}
		if _, header, err := r.FormFile("file"); err != nil || header.Filename != "audio.wav" {
			t.Errorf("file field: header=%v err=%v", header, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	result, err := p.Transcribe(context.Background(), []byte("fake-wav"), transcription.DefaultOptions())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Transcript != "नमस्ते दुनिया" {
		t.Errorf("transcript = %q", result.Transcript)
	}
	if result.LanguageCode != "hi-IN" {
		t.Errorf("language = %q", result.LanguageCode)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(result.Segments))
	}
	first := result.Segments[0]
	if first.StartTime != 0.5 || first.EndTime != 2.1 {
		t.Errorf("segment times = [%v, %v]", first.StartTime, first.EndTime)
	}
	if first.SpeakerLabel != "spk_0" {
		t.Errorf("speaker label = %q, want spk_0", first.SpeakerLabel)
	}
	if result.Segments[1].SpeakerLabel != "spk_1" {
		t.Errorf("second speaker label = %q", result.Segments[1].SpeakerLabel)
	}
}

func TestTranscribeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Transcribe(context.Background(), []byte("x"), transcription.DefaultOptions())
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.CodeOf(err) != apperrors.ErrCodeProviderHTTP {
		t.Errorf("code = %v, want %v", apperrors.CodeOf(err), apperrors.ErrCodeProviderHTTP)
	}
	if !apperrors.IsRetryable(err) {
		t.Error("provider HTTP errors should be retryable")
	}
}

func TestTranscribeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p, err := NewProvider(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		HTTP: httpclient.Config{
			ConnectTimeout: time.Second,
			SendTimeout:    time.Second,
			ReadTimeout:    20 * time.Millisecond,
		},
	}, logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	_, err = p.Transcribe(context.Background(), []byte("x"), transcription.DefaultOptions())
	if apperrors.CodeOf(err) != apperrors.ErrCodeProviderTimeout {
		t.Errorf("code = %v, want %v", apperrors.CodeOf(err), apperrors.ErrCodeProviderTimeout)
	}
}

func TestTranscribeConnectionRefused(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:1")
	_, err := p.Transcribe(context.Background(), []byte("x"), transcription.DefaultOptions())
	if apperrors.CodeOf(err) != apperrors.ErrCodeProviderRequest {
		t.Errorf("code = %v, want %v", apperrors.CodeOf(err), apperrors.ErrCodeProviderRequest)
	}
}

func TestTranscribeMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing transcript", `{"language_code": "hi-IN", "diarized_transcript": {"entries": []}}`},
		{"missing language", `{"transcript": "x", "diarized_transcript": {"entries": []}}`},
		{"missing diarization", `{"transcript": "x", "language_code": "hi-IN"}`},
		{"entry missing speaker", `{"transcript": "x", "language_code": "hi-IN", "diarized_transcript": {"entries": [{"start_time_seconds": 0, "end_time_seconds": 1, "transcript": "x"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := newTestProvider(t, srv.URL)
			_, err := p.Transcribe(context.Background(), []byte("x"), transcription.DefaultOptions())
			if apperrors.CodeOf(err) != apperrors.ErrCodeMalformedResponse {
				t.Errorf("code = %v, want %v", apperrors.CodeOf(err), apperrors.ErrCodeMalformedResponse)
			}
		})
	}
}

func TestTranscribeWithoutDiarization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transcript": "hello", "language_code": "en-IN"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	opts := transcription.Options{Model: "saarika:v2", Diarization: false, Timestamps: true}
	result, err := p.Transcribe(context.Background(), []byte("x"), opts)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Transcript != "hello" || len(result.Segments) != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	if _, err := NewProvider(Config{}, logger.NewDefault("test")); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
