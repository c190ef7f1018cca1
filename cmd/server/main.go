package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	v1 "github.com/imrenagi/go-product-images/api/v1"
	"github.com/imrenagi/go-product-images/asset"
	"github.com/imrenagi/go-product-images/config"
	"github.com/imrenagi/go-product-images/mirror"
	"github.com/imrenagi/go-product-images/product"
	"github.com/imrenagi/go-product-images/server"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := server.InitializeLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}

	images, err := asset.New(cfg.StorageRoot)
	if err != nil {
		log.Fatal().Err(err).Str("root", cfg.StorageRoot).Msg("failed to initialize image store")
	}
	log.Info().Str("root", images.Root()).Msg("image store ready")

	opts := []v1.Option{v1.WithMaxSize(cfg.MaxUploadBytes)}
	if cfg.GCSBucket != "" {
		gcs, err := mirror.NewGCS(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create storage client")
		}
		defer gcs.Close()
		opts = append(opts, v1.WithMirror(gcs))
		log.Info().Str("bucket", cfg.GCSBucket).Msg("mirroring images to cloud storage")
	}

	ctrl := v1.NewController(product.NewStore(), images, opts...)
	srv := server.New(server.Opts{
		Addr:         cfg.HTTPAddr,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
	}, ctrl)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run the server")
	}
}
