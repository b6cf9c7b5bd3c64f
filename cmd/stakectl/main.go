package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/stakeledger/internal/client/cli"
	"github.com/dmitrijs2005/stakeledger/internal/client/config"
	"github.com/dmitrijs2005/stakeledger/internal/flagx"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = app.Run(ctx, flagx.StripArgs(os.Args[1:], config.GlobalFlags))
	app.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
