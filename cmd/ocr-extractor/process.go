package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/async"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/ingest"
)

func processCmd(configPath *string) *cobra.Command {
	var (
		dir        bool
		skipHidden bool
		noLedger   bool
	)
	cmd := &cobra.Command{
		Use:   "process <path>",
		Short: "Process one document, or every document under a directory with --dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *configPath, !noLedger)
			if err != nil {
				return err
			}
			defer a.Close()

			if dir {
				return a.processDir(ctx, cmd.OutOrStdout(), args[0], skipHidden)
			}
			res := a.service.Process(ctx, args[0])
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("processing failed: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dir, "dir", false, "treat <path> as a directory and process every supported file beneath it")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot-files and dot-directories in --dir mode")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record documents in the database")
	return cmd
}

// processDir queues every supported file under root and waits for the queue to drain.
func (a *app) processDir(ctx context.Context, out io.Writer, root string, skipHidden bool) error {
	var (
		mu      sync.Mutex
		results = map[string]entity.DocumentResult{}
	)
	queue := async.NewProcessorQueue(a.service, a.logger,
		async.WithWorkers(a.cfg.Pipeline.QueueWorkers),
		async.WithQueueSize(a.cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(a.cfg.Pipeline.DocumentTimeout),
		async.WithOnComplete(func(j async.Job, res entity.DocumentResult) {
			mu.Lock()
			results[j.Path] = res
			mu.Unlock()
		}),
	)

	ingestor := ingest.NewIngestor(a.service, queue, a.logger)
	items, stats, err := ingestor.IngestDirectory(ctx, root, skipHidden)
	queue.Shutdown(context.Background())
	if err != nil {
		return err
	}

	type row struct {
		ingest.IngestionResult
		Result *entity.DocumentResult `json:"result,omitempty"`
	}
	report := struct {
		Stats ingest.DirStats `json:"stats"`
		Files []row           `json:"files"`
	}{Stats: stats, Files: make([]row, 0, len(items))}

	failed := 0
	for _, it := range items {
		r := row{IngestionResult: it}
		if res, ok := results[it.SourcePath]; ok {
			r.Result = &res
			if !res.Success {
				failed++
			}
		}
		report.Files = append(report.Files, r)
	}
	if err := printJSON(out, report); err != nil {
		return err
	}
	if failed > 0 || stats.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed+int(stats.Failed), stats.Matched)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
