package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/nutrinow/internal/buildinfo"
	"github.com/dmitrijs2005/nutrinow/internal/devserver"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("devserver", pflag.ContinueOnError)
	devserver.BindFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := devserver.LoadConfig(fs, os.LookupEnv)
	if err != nil {
		return err
	}

	buildinfo.PrintBuildData(os.Stdout)
	gin.SetMode(gin.ReleaseMode)
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	return devserver.NewServer(cfg, logger).Run(ctx)
}
