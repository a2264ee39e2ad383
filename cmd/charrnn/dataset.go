package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/dataset"
	"github.com/samcharles93/charrnn/internal/vocab"
)

func datasetCmd() *cli.Command {
	var (
		show int64
		seed int64
	)
	return &cli.Command{
		Name:  "dataset",
		Usage: "Show training examples and batch shapes",
		Flags: append(append(corpusFlags(), datasetFlags()...),
			vocabFlag(),
			&cli.Int64Flag{Name: "show", Usage: "examples to print", Value: 1, Destination: &show},
			&cli.Int64Flag{Name: "seed", Usage: "shuffle seed", Value: 0, Destination: &seed},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			text, err := loadText(ctx, c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load corpus: %v", err), 1)
			}
			v, err := vocabFor(text)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: vocabulary: %v", err), 1)
			}
			ids := v.Encode(text)
			examples := dataset.Examples(ids, int(seqLength))
			fmt.Printf("examples per epoch: %d\n", dataset.ExamplesPerEpoch(len(ids), int(seqLength)))

			for _, ex := range examples[:min(int(show), len(examples))] {
				fmt.Printf("Input : %q\n", v.Decode(ex.Input))
				fmt.Printf("Target: %q\n", v.Decode(ex.Target))
			}

			loader, err := dataset.NewLoader(examples, dataset.LoaderConfig{
				BatchSize:  int(batchSize),
				BufferSize: int(bufferSize),
				Seed:       seed,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Printf("batches per epoch: %d\n", loader.BatchesPerEpoch())
			if b, ok := loader.Next(); ok {
				fmt.Printf("batch shape: inputs (%d, %d) targets (%d, %d)\n",
					len(b.Inputs), len(b.Inputs[0]), len(b.Targets), len(b.Targets[0]))
				printHeadMapping(v, b.Inputs[0], b.Targets[0], 5)
			}
			return nil
		},
	}
}

// printHeadMapping prints the first n steps of one example as input -> target
// pairs.
func printHeadMapping(v *vocab.Vocabulary, input, target []int, n int) {
	for i := range min(n, len(input)) {
		fmt.Printf("step %2d  input %q (%d)  expected %q (%d)\n",
			i, v.Token(input[i]), input[i], v.Token(target[i]), target[i])
	}
}
