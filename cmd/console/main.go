package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"nlp_qa/app"
	"nlp_qa/config"
	"nlp_qa/console"
	"nlp_qa/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "nlpqa",
		Usage: "Ask questions to a hosted language model from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to the .env file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "model name (overrides COMPL_MODEL)",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "chat completion endpoint (overrides COMPL_ENDPOINT)",
			},
			&cli.StringFlag{
				Name:  "remote",
				Usage: "address of a completion gRPC service (overrides COMPL_ADDR)",
			},
		},
		Action: run,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return err
	}
	if cmd.IsSet("model") {
		cfg.Completion.Model = cmd.String("model")
	}
	if cmd.IsSet("endpoint") {
		cfg.Completion.Endpoint = cmd.String("endpoint")
	}
	if cmd.IsSet("remote") {
		cfg.Remote.Addr = cmd.String("remote")
	}

	// stdout belongs to the conversation
	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	c := console.New(os.Stdin, os.Stdout)
	if app.NeedsCredential(cfg) {
		key, err := c.PromptCredential(ctx)
		if errors.Is(err, console.ErrNoCredential) {
			return nil
		}
		if err != nil {
			return err
		}
		cfg.Completion.APIKey = key
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return c.Run(ctx, a.QA)
}
