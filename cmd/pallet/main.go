package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	cmd "github.com/palletworks/pallet/internal"
	"github.com/palletworks/pallet/internal/logger"
	"github.com/palletworks/pallet/internal/middleware"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, middleware.ErrLogged) {
			logger.LogError(err.Error())
		}
		os.Exit(1)
	}
}
