package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/corpus"
	"github.com/samcharles93/charrnn/internal/dataset"
)

var (
	configFile string
	fileConfig Config

	logLevel  string
	logFormat string
	debug     bool

	modelPath string
	vocabPath string

	corpusPath string
	corpusURL  string
	cacheDir   string

	seqLength  int64
	batchSize  int64
	bufferSize int64
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func modelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "model",
		Aliases:     []string{"m"},
		Usage:       "path to .safetensors model",
		Value:       "charrnn.safetensors",
		Destination: &modelPath,
	}
}

func vocabFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "vocab",
		Usage:       "path to vocabulary JSON",
		Value:       "vocab.json",
		Destination: &vocabPath,
	}
}

func corpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus",
			Usage:       "local corpus file (skips the download)",
			Destination: &corpusPath,
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "corpus URL",
			Value:       corpus.ShakespeareURL,
			Destination: &corpusURL,
		},
		&cli.StringFlag{
			Name:        "cache-dir",
			Usage:       "download cache directory (default $CHARRNN_CACHE_DIR or the user cache)",
			Destination: &cacheDir,
		},
	}
}

func datasetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "seq-length",
			Usage:       "characters per training example",
			Value:       dataset.DefaultSeqLength,
			Destination: &seqLength,
		},
		&cli.Int64Flag{
			Name:        "batch-size",
			Usage:       "examples per batch",
			Value:       dataset.DefaultBatchSize,
			Destination: &batchSize,
		},
		&cli.Int64Flag{
			Name:        "buffer-size",
			Usage:       "shuffle buffer size",
			Value:       dataset.DefaultBufferSize,
			Destination: &bufferSize,
		},
	}
}
