package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sealdrop/internal/client/cli"
	"github.com/dmitrijs2005/sealdrop/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx, os.Args[1:])
	if cerr := app.Close(ctx); cerr != nil {
		log.Printf("close: %v", cerr)
	}
	if err != nil {
		os.Exit(1)
	}

}
