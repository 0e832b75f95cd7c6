package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sabarim/b3quotes/internal/catalog"
	"github.com/sabarim/b3quotes/internal/config"
	"github.com/sabarim/b3quotes/internal/logging"
	"github.com/sabarim/b3quotes/internal/trigger"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	client, err := catalog.NewGlueClient(context.Background(), cfg.Storage.Region, cfg.Storage.Endpoint)
	if err != nil {
		log.Error("failed to create glue client", "error", err)
		os.Exit(1)
	}

	h := &trigger.Handler{
		JobName: cfg.Trigger.JobName,
		Starter: trigger.NewGlueStarter(client),
		Log:     log,
	}
	lambda.Start(h.Handle)
}
