package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"nlp_qa/app"
	"nlp_qa/config"
	"nlp_qa/logger"
	"nlp_qa/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "nlpqa-web",
		Usage: "Serve the question form over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to the .env file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (overrides WEB_ADDR)",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "model name (overrides COMPL_MODEL)",
			},
			&cli.StringFlag{
				Name:  "remote",
				Usage: "address of a completion gRPC service (overrides COMPL_ADDR)",
			},
		},
		Action: serve,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return err
	}
	if cmd.IsSet("addr") {
		cfg.Web.Addr = cmd.String("addr")
	}
	if cmd.IsSet("model") {
		cfg.Completion.Model = cmd.String("model")
	}
	if cmd.IsSet("remote") {
		cfg.Remote.Addr = cmd.String("remote")
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	// The web form never prompts: without a key every answer is the
	// missing-credential message.
	if app.NeedsCredential(cfg) {
		log.Warn("HUGGINGFACE_API_KEY is not set")
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if !logger.IsDebug(cfg.Log.Level) {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           web.NewRouter(a.QA, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return web.Serve(ctx, server, log)
}
