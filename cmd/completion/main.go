package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"google.golang.org/grpc"

	"nlp_qa/app"
	completiongrpc "nlp_qa/completion/grpc"
	"nlp_qa/config"
	"nlp_qa/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "nlpqa-completion",
		Usage: "Serve chat completions over gRPC",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to the .env file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "listen port (overrides SERVE_PORT)",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "chat completion endpoint (overrides COMPL_ENDPOINT)",
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
	if cmd.IsSet("port") {
		cfg.Remote.ServePort = cmd.String("port")
	}
	if cmd.IsSet("endpoint") {
		cfg.Completion.Endpoint = cmd.String("endpoint")
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if cfg.Completion.APIKey == "" {
		log.Warn("HUGGINGFACE_API_KEY is not set, every call will fail")
	}

	lis, err := net.Listen("tcp", ":"+cfg.Remote.ServePort)
	if err != nil {
		return fmt.Errorf("fail to listen: %w", err)
	}

	s := grpc.NewServer()
	completiongrpc.Register(s, completiongrpc.NewServer(app.NewCompletion(cfg.Completion, log), log))

	go func() {
		<-ctx.Done()
		log.Info("stopping completion gRPC server")
		s.GracefulStop()
	}()

	log.Info("completion gRPC server listening", "port", cfg.Remote.ServePort, "endpoint", cfg.Completion.Endpoint)
	if err := s.Serve(lis); err != nil {
		return fmt.Errorf("fail to serve: %w", err)
	}
	return nil
}
