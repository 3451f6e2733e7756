package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	scanflow "github.com/photonworks/ScanFlow"
)

func main() {
	scanner, err := scanflow.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bench := scanner.Bench()
	theta, ok := bench.Positioner("mtr:theta")
	if !ok {
		log.Fatal("bench has no mtr:theta axis")
	}

	rec, err := scanner.Plan().
		Over(theta, 0, 10, 20).
		Reading(bench.DetectorPorts()...).
		Run(ctx)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	fmt.Printf("run %d finished, data: %v\n", rec.ID, rec.Data)
}
