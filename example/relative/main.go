package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	scanflow "github.com/photonworks/ScanFlow"
)

// Sweeps two axes around wherever they currently sit and moves them
// back afterwards. Start/stop values are offsets, not absolute targets.
func main() {
	scanner, err := scanflow.Conf("../../data/config.yaml", scanflow.Relative())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bench := scanner.Bench()
	x, ok := bench.Positioner("mtr:x")
	if !ok {
		log.Fatal("bench has no mtr:x axis")
	}
	y, ok := bench.Positioner("mtr:y")
	if !ok {
		log.Fatal("bench has no mtr:y axis")
	}

	dims := []scanflow.Dimension{
		scanflow.Dim(y, -1, 1, 4),
		scanflow.Dim(x, -0.5, 0.5, 10),
	}

	rec, err := scanner.Scan(ctx, dims...)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	fmt.Printf("run %d finished, data: %v\n", rec.ID, rec.Data)
}
