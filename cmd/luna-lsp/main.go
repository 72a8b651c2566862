// Command luna-lsp is a Language Server Protocol server for Lua.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/luna/lsp"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "luna-lsp",
		Version: version,
		Usage:   "Lua language server speaking LSP over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LUNA_LOG_LEVEL"),
			},
		},
		Action: serve,
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	// Logs go to stderr; stdout carries the protocol
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return err
	}

	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting luna-lsp server", zap.String("version", version))

	// An explicit flag wins over log.level in .luna.yaml
	var follow *zap.AtomicLevel
	if !cmd.IsSet("log-level") {
		follow = &config.Level
	}

	err = run(ctx, logger, follow, os.Stdin, os.Stdout)
	if err != nil {
		logger.Error("Server error", zap.Error(err))

		return err
	}

	return nil
}

func run(ctx context.Context, logger *zap.Logger, level *zap.AtomicLevel, in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	client := protocol.ClientDispatcher(conn, logger)
	server := lsp.NewServer(client, logger)
	if level != nil {
		server.FollowConfigLevel(*level)
	}

	conn.Go(ctx, lsp.Handler(server))

	<-conn.Done()

	return conn.Err()
}

// readWriteCloser joins stdin and stdout into one stream.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
