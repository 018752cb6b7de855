// Command api runs the HTTP ingress: accepts audio uploads and URL
// submissions, enqueues transcription jobs, and serves job status.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillsenselab/audiopipe/config"
	"github.com/skillsenselab/audiopipe/httpclient"
	"github.com/skillsenselab/audiopipe/job"
	"github.com/skillsenselab/audiopipe/logger"
	"github.com/skillsenselab/audiopipe/pipeline"
	"github.com/skillsenselab/audiopipe/redis"
	"github.com/skillsenselab/audiopipe/server"
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

	cfg, err := config.Load("api", *configFile)
	if err != nil {
		logger.NewDefault("api").Fatal("load config", logger.ErrorFields("config", err))
	}

	log := logger.New(&cfg.Logging, cfg.Name)
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

	queue := job.NewQueue(rdb)
	records := job.NewStore(rdb)
	submitter := job.NewSubmitter(queue, records, log)

	fetcher, err := httpclient.New(httpclient.Config{})
	if err != nil {
		log.Fatal("fetch client init", logger.ErrorFields("httpclient", err))
	}

	srv := server.New(server.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, log)
	api := server.NewAPI(store, submitter, records, pipe, fetcher, cfg.Transcription, log)
	api.Register(srv.Engine())

	if err := srv.Start(ctx); err != nil {
		log.Fatal("server start", logger.ErrorFields("server", err))
	}

	<-ctx.Done()
	if err := srv.Stop(context.Background()); err != nil {
		log.Error("server shutdown", logger.ErrorFields("shutdown", err))
		os.Exit(1)
	}
}
