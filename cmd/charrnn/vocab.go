package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/logger"
	"github.com/samcharles93/charrnn/internal/vocab"
)

func vocabCmd() *cli.Command {
	return &cli.Command{
		Name:  "vocab",
		Usage: "Build the character vocabulary from the corpus",
		Flags: append(corpusFlags(), vocabFlag()),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			text, err := loadText(ctx, c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load corpus: %v", err), 1)
			}
			v, err := vocab.Build(text)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build vocabulary: %v", err), 1)
			}
			if err := v.Save(vocabPath); err != nil {
				return cli.Exit(fmt.Sprintf("error: save vocabulary: %v", err), 1)
			}
			log.Info("vocabulary written", "path", vocabPath)
			fmt.Printf("%d unique characters\n", v.Size()-1)
			return nil
		},
	}
}

// vocabFor loads the vocabulary file when it exists and otherwise builds one
// from text.
func vocabFor(text string) (*vocab.Vocabulary, error) {
	if v, err := vocab.Load(vocabPath); err == nil {
		return v, nil
	}
	return vocab.Build(text)
}
