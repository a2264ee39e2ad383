package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/model"
	"github.com/samcharles93/charrnn/internal/safetensors"
)

func inspectCmd() *cli.Command {
	var (
		showTensors bool
		showVocab   bool
		vocabLimit  int
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a .safetensors model file",
		Flags: []cli.Flag{
			modelFlag(),
			&cli.BoolFlag{Name: "tensors", Usage: "list tensor index", Value: true, Destination: &showTensors},
			&cli.BoolFlag{Name: "vocab", Usage: "list vocab entries", Destination: &showVocab},
			&cli.IntFlag{Name: "vocab-limit", Usage: "limit vocab listing (0 = no limit)", Value: 50, Destination: &vocabLimit},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			applyModelConfig(c, fileConfig)

			st, err := safetensors.Open(modelPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open model: %v", err), 1)
			}
			defer func() { _ = st.Close() }()

			fmt.Printf("file:   %s\n", modelPath)
			if f := st.Metadata["format"]; f != "" {
				fmt.Printf("format: %s\n", f)
			}

			var cfg model.Config
			if raw := st.Metadata["config"]; raw != "" {
				if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
					return cli.Exit(fmt.Sprintf("error: parse config metadata: %v", err), 1)
				}
				fmt.Printf("vocab size:    %d\n", cfg.VocabSize)
				fmt.Printf("embedding dim: %d\n", cfg.EmbeddingDim)
				fmt.Printf("hidden dim:    %d\n", cfg.HiddenDim)
				fmt.Printf("parameters:    %d\n", cfg.Params())
			}

			if showTensors {
				names := make([]string, 0, len(st.Tensors))
				for name := range st.Tensors {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Println("\ntensors:")
				for _, name := range names {
					info := st.Tensors[name]
					fmt.Printf("  %-24s %-5s %v\n", name, info.DType, info.Shape)
				}
			}

			if showVocab {
				var tokens []string
				if err := json.Unmarshal([]byte(st.Metadata["vocab"]), &tokens); err != nil {
					return cli.Exit(fmt.Sprintf("error: parse vocab metadata: %v", err), 1)
				}
				limit := len(tokens)
				if vocabLimit > 0 {
					limit = min(limit, vocabLimit)
				}
				fmt.Println("\nvocab:")
				for id, tok := range tokens[:limit] {
					fmt.Printf("  %4d %q\n", id, tok)
				}
				if limit < len(tokens) {
					fmt.Printf("  ... %d more\n", len(tokens)-limit)
				}
			}
			return nil
		},
	}
}
