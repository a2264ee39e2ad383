package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/api"
	"github.com/samcharles93/charrnn/internal/history"
	"github.com/samcharles93/charrnn/internal/logger"
	"github.com/samcharles93/charrnn/internal/model"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		historyDB   string
		temp        float64
		steps       int64
		maxSteps    int64
		maxPrompt   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation REST API",
		Flags: []cli.Flag{
			modelFlag(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.StringFlag{
				Name:        "history-db",
				Usage:       "SQLite file for generation history (empty = in memory)",
				Destination: &historyDB,
			},
			&cli.Float64Flag{
				Name:        "temperature",
				Usage:       "default sampling temperature",
				Value:       1.0,
				Destination: &temp,
			},
			&cli.Int64Flag{
				Name:        "steps",
				Usage:       "default characters per generation",
				Value:       1000,
				Destination: &steps,
			},
			&cli.Int64Flag{
				Name:        "max-steps",
				Usage:       "largest steps value a request may ask for (0 = no cap)",
				Value:       10000,
				Destination: &maxSteps,
			},
			&cli.Int64Flag{
				Name:        "max-prompt",
				Usage:       "longest prompt or step input in characters (0 = no cap)",
				Value:       4096,
				Destination: &maxPrompt,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, fileConfig, &addr, &historyDB, &temp, &steps)

			defaults := api.DefaultDefaults()
			defaults.Temperature = temp
			defaults.Steps = int(steps)
			defaults.MaxSteps = int(maxSteps)
			defaults.MaxPromptRunes = int(maxPrompt)
			if err := defaults.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			m, v, err := model.Load(modelPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load model: %v", err), 1)
			}

			var store history.Store = history.NewMemoryStore()
			if historyDB != "" {
				sq, err := history.OpenSQLite(historyDB)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: open history: %v", err), 1)
				}
				store = sq
			}
			defer func() { _ = store.Close() }()

			server, err := api.NewServer(api.Config{
				Model:    m,
				Vocab:    v,
				Store:    store,
				Defaults: defaults,
				Log:      log.WithGroup("api"),
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server",
				"address", addr,
				"model", modelPath,
				"params", m.Config.Params(),
				"history", historyDB,
			)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
