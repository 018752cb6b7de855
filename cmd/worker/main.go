// Command worker consumes transcription jobs from the queue: downloads the
// source audio, runs the chunked transcription pipeline, and records the
// result. Retry of failed jobs lives here and only here.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/skillsenselab/audiopipe/audio"
	"github.com/skillsenselab/audiopipe/config"
	"github.com/skillsenselab/audiopipe/job"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/pipeline"
	"github.com/skillsenselab/audiopipe/redis"
	"github.com/skillsenselab/audiopipe/storage"
	_ "github.com/skillsenselab/audiopipe/storage/local"
	_ "github.com/skillsenselab/audiopipe/storage/s3"
	"github.com/skillsenselab/audiopipe/transcription"
	"github.com/skillsenselab/audiopipe/transcription/sarvam"
	"github.com/skillsenselab/audiopipe/translation"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	flag.Parse()

	cfg, err := config.Load("worker", *configFile)
	if err != nil {
		logger.NewDefault("worker").Fatal("load config", logger.ErrorFields("config", err))
	}

	log := logger.New(&cfg.Logging, cfg.Name+"-worker")
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.New(cfg.Redis, log)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx); err != nil {
		log.Fatal("redis unreachable", logger.ErrorFields("ping", err))
	}

	store, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.Fatal("storage init", logger.ErrorFields("storage", err))
	}

	transcription.Register(sarvam.ProviderName, func() (transcription.Provider, error) {
		return sarvam.NewProvider(cfg.Sarvam, log)
	})
	provider, err := transcription.New(sarvam.ProviderName)
	if err != nil {
		log.Fatal("transcription provider init", logger.ErrorFields("provider", err))
	}

	var translator translation.Translator = translation.Noop{}
	if cfg.Translator.Enabled {
		translator, err = translation.NewOpenAITranslator(cfg.Translator.OpenAIConfig, log)
		if err != nil {
			log.Fatal("translator init", logger.ErrorFields("translator", err))
		}
	}

	pipe := pipeline.New(provider, translator, cfg.Chunking.MaxChunkSeconds, log)

	handler := func(ctx context.Context, j job.Job) (*pipeline.Result, error) {
		data, err := storage.DownloadBytes(ctx, store, j.StorageKey)
		if err != nil {
			return nil, err
		}
		asset, err := audio.NewAsset(data, audio.FormatWAV)
		if err != nil {
			return nil, err
		}
		return pipe.Transcribe(ctx, asset, j.Options)
	}

	dispatcher := job.NewDispatcher(job.NewQueue(rdb), job.NewStore(rdb), handler, cfg.Worker, log)
	dispatcher.Run(ctx)
}
