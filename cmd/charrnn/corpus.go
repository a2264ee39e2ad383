package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/corpus"
	"github.com/samcharles93/charrnn/internal/logger"
)

// loadText returns the corpus named by --corpus, or downloads --url into the
// cache and reads it from there.
func loadText(ctx context.Context, c *cli.Command) (string, error) {
	applyCorpusConfig(c, fileConfig)
	if corpusPath != "" {
		return corpus.Read(corpusPath)
	}
	dir := cacheDir
	if dir == "" {
		dir = corpus.CacheDir()
	}
	f := &corpus.Fetcher{
		Client:   &http.Client{Timeout: 5 * time.Minute},
		CacheDir: dir,
		Log:      logger.FromContext(ctx),
	}
	path, err := f.Fetch(ctx, corpusURL)
	if err != nil {
		return "", err
	}
	return corpus.Read(path)
}

func fetchCmd() *cli.Command {
	var head int64
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download the corpus and print its length and opening",
		Flags: append(corpusFlags(), &cli.Int64Flag{
			Name:        "head",
			Usage:       "characters to print from the start of the corpus",
			Value:       250,
			Destination: &head,
		}),
		Action: func(ctx context.Context, c *cli.Command) error {
			if head < 0 {
				return cli.Exit(fmt.Sprintf("error: --head must not be negative: got %d", head), 1)
			}
			text, err := loadText(ctx, c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load corpus: %v", err), 1)
			}
			runes := []rune(text)
			fmt.Printf("Length of text: %d characters\n", len(runes))
			fmt.Println(string(runes[:min(int(head), len(runes))]))
			return nil
		},
	}
}
