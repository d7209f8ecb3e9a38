package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/async"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/ingest"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/server"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		watch     []string
		scanWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the gRPC health endpoint and the background queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath, true)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx, watch, scanWatch)
		},
	}
	cmd.Flags().StringSliceVar(&watch, "watch", nil, "directories to watch; new documents are queued automatically")
	cmd.Flags().BoolVar(&scanWatch, "watch-initial-scan", false, "queue documents already present in watched directories")
	return cmd
}

func (a *app) serve(ctx context.Context, watch []string, initialScan bool) error {
	log := a.logger
	cfg := a.cfg

	queue := async.NewProcessorQueue(a.service, log,
		async.WithWorkers(cfg.Pipeline.QueueWorkers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.DocumentTimeout),
	)
	defer queue.Shutdown(context.Background())

	api := server.New(server.Deps{
		Processor:      a.service,
		Queue:          queue,
		Jobs:           a.docs,
		Health:         a.gateway,
		Storage:        cfg.Storage,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, log)
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	reporter := server.NewHealthReporter(a.gateway, cfg.Server.HealthInterval, log)
	reporter.Register(grpcServer)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("ocr-extractor http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("ocr-extractor grpc health listening", "addr", cfg.Server.GRPCAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		reporter.Run(gctx)
		return nil
	})
	if len(watch) > 0 {
		ingestor := ingest.NewIngestor(a.service, queue, log)
		g.Go(func() error {
			err := ingestor.Watch(gctx, ingest.WatchConfig{Roots: watch, InitialScan: initialScan, Debounce: 500 * time.Millisecond})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})
	return g.Wait()
}
