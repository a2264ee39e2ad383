package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/logger"
	"github.com/samcharles93/charrnn/internal/model"
)

func initCmd() *cli.Command {
	var (
		out          string
		embeddingDim int64
		hiddenDim    int64
		seed         int64
	)
	return &cli.Command{
		Name:  "init",
		Usage: "Write an untrained model with random weights",
		Flags: append(corpusFlags(),
			vocabFlag(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output .safetensors path",
				Value:       "charrnn.safetensors",
				Destination: &out,
			},
			&cli.Int64Flag{
				Name:        "embedding-dim",
				Usage:       "embedding width",
				Value:       model.DefaultEmbeddingDim,
				Destination: &embeddingDim,
			},
			&cli.Int64Flag{
				Name:        "hidden-dim",
				Aliases:     []string{"rnn-units"},
				Usage:       "GRU units",
				Value:       model.DefaultHiddenDim,
				Destination: &hiddenDim,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "weight initialisation seed",
				Value:       1,
				Destination: &seed,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			text, err := loadText(ctx, c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load corpus: %v", err), 1)
			}
			v, err := vocabFor(text)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: vocabulary: %v", err), 1)
			}

			cfg := model.Config{
				VocabSize:    v.Size(),
				EmbeddingDim: int(embeddingDim),
				HiddenDim:    int(hiddenDim),
			}
			m, err := model.NewRandom(cfg, seed)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := m.Save(out, v); err != nil {
				return cli.Exit(fmt.Sprintf("error: save model: %v", err), 1)
			}
			log.Info("model written",
				"path", out,
				"vocab", cfg.VocabSize,
				"embedding", cfg.EmbeddingDim,
				"hidden", cfg.HiddenDim,
				"params", cfg.Params(),
			)
			return nil
		},
	}
}
