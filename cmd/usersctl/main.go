package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kazna/user-service/internal/server/admin"
	"github.com/kazna/user-service/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := admin.NewApp(cfg, os.Stdout)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, admin.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

}
