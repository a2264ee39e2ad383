package main

import (
	"context"
	"fmt"
	"math"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/dataset"
	"github.com/samcharles93/charrnn/internal/logger"
	"github.com/samcharles93/charrnn/internal/model"
)

func evalCmd() *cli.Command {
	var (
		batches int64
		seed    int64
	)
	return &cli.Command{
		Name:  "eval",
		Usage: "Report mean next-character loss on corpus batches",
		Flags: append(append(corpusFlags(), datasetFlags()...),
			modelFlag(),
			&cli.Int64Flag{Name: "batches", Usage: "batches to evaluate (0 = full epoch)", Value: 1, Destination: &batches},
			&cli.Int64Flag{Name: "seed", Usage: "shuffle seed", Value: 0, Destination: &seed},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyModelConfig(c, fileConfig)

			m, v, err := model.Load(modelPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load model: %v", err), 1)
			}
			text, err := loadText(ctx, c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load corpus: %v", err), 1)
			}

			examples := dataset.Examples(v.Encode(text), int(seqLength))
			loader, err := dataset.NewLoader(examples, dataset.LoaderConfig{
				BatchSize:  int(batchSize),
				BufferSize: int(bufferSize),
				Seed:       seed,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			var (
				total float64
				n     int
			)
			for b := range loader.All() {
				if batches > 0 && int64(n) >= batches {
					break
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				logits, _, err := m.Forward(b.Inputs, nil)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: forward: %v", err), 1)
				}
				loss, err := model.Loss(logits, b.Targets)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: loss: %v", err), 1)
				}
				log.Debug("batch evaluated", "batch", n, "loss", loss)
				total += loss
				n++
			}
			if n == 0 {
				return cli.Exit("error: corpus too small for a single batch", 1)
			}

			mean := total / float64(n)
			fmt.Printf("batches: %d\n", n)
			fmt.Printf("mean loss: %.4f\n", mean)
			fmt.Printf("perplexity: %.2f\n", math.Exp(mean))
			fmt.Printf("uniform baseline (ln V): %.4f\n", math.Log(float64(v.Size())))
			return nil
		},
	}
}
