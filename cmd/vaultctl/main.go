package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mailvault/internal/app"
	"github.com/dmitrijs2005/mailvault/internal/cli"
	"github.com/dmitrijs2005/mailvault/internal/config"
	"github.com/dmitrijs2005/mailvault/internal/flagx"
	"github.com/dmitrijs2005/mailvault/vault"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	a, err := app.NewApp(ctx, cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := flagx.StripArgs(os.Args[1:], config.FlagNames())

	err = a.Run(ctx, func(ctx context.Context, v *vault.Vault) error {
		return cli.New(v, os.Stdin, os.Stdout).Run(ctx, args)
	})

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
