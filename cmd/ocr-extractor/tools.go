package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/export"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/llm"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/pipeline"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/raster"
	repo "github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/repository"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <pdf>",
		Short: "Print page count and metadata of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := raster.PDFInfo(args[0])
			if err := printJSON(cmd.OutOrStdout(), info); err != nil {
				return err
			}
			if !info.Success {
				return fmt.Errorf("read pdf: %s", info.Error)
			}
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <json> [xlsx]",
		Short: "Convert a JSON output file into an Excel workbook",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out := strings.TrimSuffix(in, filepath.Ext(in)) + ".xlsx"
			if len(args) == 2 {
				out = args[1]
			}
			w := export.NewWriter(common.NewLogger(common.LogConfig{Level: "warn"}, os.Stderr))
			path, err := w.ConvertJSONToExcel(in, out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func healthCmd(configPath *string) *cobra.Command {
	var checkDB bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the model backend and, optionally, the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := common.NewLogger(cfg.Log, os.Stderr)
			backend, err := newBackend(ctx, cfg.Model, logger)
			if err != nil {
				return err
			}

			report := struct {
				Model    llm.HealthStatus `json:"model"`
				Database string           `json:"database,omitempty"`
			}{Model: backend.Health(ctx)}

			var dbErr error
			if checkDB {
				db, err := repo.Open(ctx, repo.ConfigFromCommon(cfg.Database), logger)
				if err == nil {
					dbErr = db.HealthCheck(ctx, 5*time.Second)
					db.Close(logger)
				} else {
					dbErr = err
				}
				report.Database = "ok"
				if dbErr != nil {
					report.Database = dbErr.Error()
				}
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Model.Healthy {
				return fmt.Errorf("model backend %s is not healthy", report.Model.Backend)
			}
			return dbErr
		},
	}
	cmd.Flags().BoolVar(&checkDB, "db", false, "also open and ping the ledger database")
	return cmd
}

// analyzeCmd runs the page protocol, or a single task, against one image without writing outputs.
func analyzeCmd(configPath *string) *cobra.Command {
	var (
		task  string
		times int
	)
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Send one page image through the model and print the raw analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := common.NewLogger(cfg.Log, os.Stderr)
			backend, err := newBackend(ctx, cfg.Model, logger)
			if err != nil {
				return err
			}
			gw := llm.NewGateway(backend, llm.PromptsFromConfig(cfg.Prompts), cfg.Model.Timeout, logger)
			page := entity.PageImage{Index: 1, Path: args[0]}

			if times <= 0 {
				times = 1
			}
			for i := 0; i < times; i++ {
				start := time.Now()
				var out any
				if task == "" {
					out = pipeline.AnalyzePage(ctx, gw, page)
				} else {
					out = gw.Invoke(ctx, page, llm.TaskKind(task))
				}
				logger.Info("analyze.run", "iteration", i+1, "elapsed_ms", time.Since(start).Milliseconds())
				if err := printJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "run only one task: classify, extract_text or extract_table")
	cmd.Flags().IntVar(&times, "times", 1, "repeat the call to compare answers")
	return cmd
}
