package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/devfolio/portfolio-backend/cmd/contact/commands"
	"github.com/devfolio/portfolio-backend/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Execute(ctx)
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
