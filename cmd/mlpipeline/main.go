package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/youta-t/flarc"

	"github.com/askiada/go-mlpipeline/cmd/mlpipeline/run"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd, err := run.New(run.MLflowInvoker)
	if err != nil {
		log.Fatal(err)
	}

	os.Exit(flarc.Run(ctx, cmd, flarc.WithHelp(true)))
}
