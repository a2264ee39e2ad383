package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/charrnn/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "charrnn",
		Usage: "Character-level GRU text generation",
		Flags: append(loggingFlags(), &cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       configPath(),
			Destination: &configFile,
		}),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			fileConfig = LoadConfig(configFile)
			applyLoggingConfig(cmd, fileConfig)
			log := logger.FromFlags(os.Stderr, logFormat, logLevel, debug)
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			fetchCmd(),
			vocabCmd(),
			datasetCmd(),
			initCmd(),
			generateCmd(),
			evalCmd(),
			serveCmd(),
			inspectCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
