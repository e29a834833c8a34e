package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/tokenexpiry/internal/app"
	"github.com/dmitrijs2005/tokenexpiry/internal/common"
	"github.com/dmitrijs2005/tokenexpiry/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		os.Exit(common.ExitFailure)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(common.ExitFailure)
	}

	os.Exit(application.Run(ctx))

}
