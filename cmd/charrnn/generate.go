package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/history"
	"github.com/samcharles93/charrnn/internal/inference"
	"github.com/samcharles93/charrnn/internal/logger"
	"github.com/samcharles93/charrnn/internal/model"
)

func generateCmd() *cli.Command {
	var (
		prompt     string
		steps      int64
		temp       float64
		seed       int64
		streamMode string
		rawOutput  bool
		showStats  bool
		record     string
	)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"run"},
		Usage:   "Generate text one character at a time",
		Flags: []cli.Flag{
			modelFlag(),
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "seed text",
				Value:       "ROMEO:",
				Destination: &prompt,
			},
			&cli.Int64Flag{
				Name:        "steps",
				Aliases:     []string{"n"},
				Usage:       "characters to generate",
				Value:       1000,
				Destination: &steps,
			},
			&cli.Float64Flag{
				Name:        "temp",
				Aliases:     []string{"temperature", "t"},
				Usage:       "sampling temperature (> 0)",
				Value:       1.0,
				Destination: &temp,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "sampling RNG seed (default -1 = random)",
				Value:       -1,
				Destination: &seed,
			},
			&cli.StringFlag{
				Name:        "stream-mode",
				Usage:       "output mode (instant, smooth, typewriter, quiet)",
				Value:       string(StreamInstant),
				Destination: &streamMode,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "escape control characters in the output",
				Destination: &rawOutput,
			},
			&cli.BoolFlag{
				Name:        "stats",
				Usage:       "print generation statistics",
				Value:       true,
				Destination: &showStats,
			},
			&cli.StringFlag{
				Name:        "record",
				Usage:       "SQLite history database to record the run in",
				Destination: &record,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyGenerateConfig(c, fileConfig, &temp, &steps, &seed, &streamMode, &record)

			mode, err := parseStreamMode(streamMode)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if steps < 0 {
				return cli.Exit("error: --steps must not be negative", 1)
			}
			if seed < 0 {
				seed = time.Now().UnixNano()
			}

			loadStart := time.Now()
			m, v, err := model.Load(modelPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load model: %v", err), 1)
			}
			log.Debug("model loaded",
				"path", modelPath,
				"vocab", m.Config.VocabSize,
				"hidden", m.Config.HiddenDim,
				"elapsed", time.Since(loadStart),
			)

			gen, err := inference.NewStepGenerator(m, v, temp, seed)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			sw := NewStreamWriter(os.Stdout, mode, rawOutput)
			sw.Write(prompt)
			res, genErr := gen.Generate(ctx, prompt, int(steps), sw.Write)
			sw.Flush()
			fmt.Println()
			if genErr != nil && !errors.Is(genErr, context.Canceled) {
				return cli.Exit(fmt.Sprintf("error: generate: %v", genErr), 1)
			}

			if showStats {
				_, _ = fmt.Fprintf(os.Stderr, "\nStats:\n  chars: %d\n  time: %s\n  chars/s: %.1f\n  seed: %d\n",
					res.Stats.CharsGenerated, res.Stats.Duration.Round(time.Millisecond), res.Stats.CharsPerSec, seed)
			}

			if record != "" && genErr == nil {
				if err := recordRun(ctx, record, history.Record{
					ID:          history.NewID(),
					Seed:        prompt,
					Output:      res.Text,
					Temperature: temp,
					Steps:       int(steps),
					RandSeed:    seed,
					CreatedAt:   time.Now().UTC(),
				}); err != nil {
					log.Warn("could not record generation", "db", record, "error", err)
				}
			}
			return nil
		},
	}
}

func recordRun(ctx context.Context, path string, rec history.Record) error {
	store, err := history.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Put(ctx, rec); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("generation recorded", "id", rec.ID, "db", path)
	return nil
}
