package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/audiopipe/audio"
	apperrors "github.com/skillsenselab/audiopipe/errors"
	"github.com/skillsenselab/audiopipe/httpclient"
	"github.com/skillsenselab/audiopipe/job"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/pipeline"
	"github.com/skillsenselab/audiopipe/storage"
	"github.com/skillsenselab/audiopipe/transcription"
)

// maxUploadBytes bounds accepted audio uploads (200 MB).
const maxUploadBytes = 200 << 20

// API wires the HTTP handlers to their collaborators.
type API struct {
	store     storage.Storage
	submitter *job.Submitter
	records   *job.Store
	pipe      *pipeline.Pipeline
	fetcher   *httpclient.Client
	opts      transcription.Options
	log       *logger.Logger
}

// NewAPI creates the handler set. fetcher downloads remote audio for
// URL-based submissions.
func NewAPI(store storage.Storage, submitter *job.Submitter, records *job.Store, pipe *pipeline.Pipeline, fetcher *httpclient.Client, opts transcription.Options, log *logger.Logger) *API {
	return &API{
		store:     store,
		submitter: submitter,
		records:   records,
		pipe:      pipe,
		fetcher:   fetcher,
		opts:      opts,
		log:       log.WithComponent("api"),
	}
}

// Register mounts the routes.
func (a *API) Register(r *gin.Engine) {
	r.GET("/health", a.health)

	v1 := r.Group("/v1")
	v1.POST("/transcriptions", a.createTranscription)
	v1.POST("/transcriptions/sync", a.createTranscriptionSync)
	v1.GET("/jobs/:id", a.getJob)
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// urlRequest is the JSON body for URL-based submissions.
type urlRequest struct {
	AudioURL string `json:"audio_url" binding:"required,url"`
}

// submitResponse acknowledges an accepted job.
type submitResponse struct {
	JobID      string    `json:"job_id"`
	State      job.State `json:"state"`
	StorageKey string    `json:"storage_key"`
}

// createTranscription accepts an audio upload (multipart field "file") or a
// JSON body with audio_url, stores the source, and enqueues a job.
func (a *API) createTranscription(c *gin.Context) {
	key, err := a.ingest(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	j := job.NewJob(key, a.opts)
	if err := a.submitter.Submit(c.Request.Context(), j); err != nil {
		RespondWithError(c, err)
		return
	}

	RespondAccepted(c, submitResponse{JobID: j.ID, State: job.StateQueued, StorageKey: key})
}

// createTranscriptionSync runs the pipeline inline and returns the merged
// result. Intended for short assets; long-form audio belongs on the queue.
func (a *API) createTranscriptionSync(c *gin.Context) {
	key, err := a.ingest(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	data, err := storage.DownloadBytes(c.Request.Context(), a.store, key)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	asset, err := audio.NewAsset(data, audio.FormatWAV)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	result, err := a.pipe.Transcribe(c.Request.Context(), asset, a.opts)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	// An all-chunks-failed result maps to the failure's HTTP class (a
	// provider timeout becomes 504) instead of a 200.
	if cause := result.FailureError(); cause != nil {
		if appErr, ok := apperrors.AsAppError(cause); ok {
			RespondWithError(c, appErr.WithDetail("failed_chunk_indices", result.FailedChunkIndices))
			return
		}
		RespondWithError(c, cause)
		return
	}

	RespondOK(c, result)
}

// getJob serves a job's persisted record.
func (a *API) getJob(c *gin.Context) {
	rec, err := a.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, rec)
}

// ingest reads the source audio from the request (upload or URL), validates
// it, and stores it under a fresh temp key.
func (a *API) ingest(c *gin.Context) (string, error) {
	var filename string
	var data []byte

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req urlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", apperrors.InvalidInput("audio_url", err.Error())
		}
		fetched, err := a.fetch(c.Request.Context(), req.AudioURL)
		if err != nil {
			return "", err
		}
		data = fetched
		filename = path.Base(req.AudioURL)
	} else {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return "", apperrors.InvalidInput("file", "multipart field 'file' is required")
		}
		if fileHeader.Size > maxUploadBytes {
			return "", apperrors.InvalidInput("file", fmt.Sprintf("file exceeds %d bytes", maxUploadBytes))
		}
		f, err := fileHeader.Open()
		if err != nil {
			return "", apperrors.InvalidInput("file", err.Error())
		}
		defer func() { _ = f.Close() }()
		data, err = io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		if err != nil {
			return "", apperrors.Internal(err)
		}
		filename = fileHeader.Filename
	}

	if !strings.EqualFold(path.Ext(filename), ".wav") {
		return "", apperrors.InvalidInput("file", "only .wav files are supported")
	}

	// Fail fast on undecodable audio before it ever reaches the queue.
	if _, err := audio.NewAsset(data, audio.FormatWAV); err != nil {
		return "", err
	}

	key := storage.TempKey(filename)
	if err := storage.UploadBytes(c.Request.Context(), a.store, key, data); err != nil {
		return "", err
	}

	a.log.Info("audio ingested", logger.Fields(
		"storage_key", key,
		"bytes", len(data),
	))
	return key, nil
}

// fetch downloads remote audio for URL submissions.
func (a *API) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := a.fetcher.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: url})
	if err != nil {
		return nil, apperrors.InvalidInput("audio_url", fmt.Sprintf("fetch failed: %v", err))
	}
	if len(resp.Body) > maxUploadBytes {
		return nil, apperrors.InvalidInput("audio_url", fmt.Sprintf("remote file exceeds %d bytes", maxUploadBytes))
	}
	return resp.Body, nil
}
