package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	scanflow "github.com/photonworks/ScanFlow"
	"github.com/photonworks/ScanFlow/internal/adapters/sim"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("scanctl %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	axes := fs.String("axes", "", "Comma-separated bench axes to sweep, slowest first (default: all)")
	starts := fs.String("start", "0", "Comma-separated start values (single value broadcasts)")
	stops := fs.String("stop", "1", "Comma-separated stop values (single value broadcasts)")
	intervals := fs.String("intervals", "5", "Comma-separated interval counts (single value broadcasts)")
	relative := fs.Bool("relative", false, "Treat start/stop as offsets from the current position")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts []scanflow.Option
	if *relative {
		opts = append(opts, scanflow.Relative())
	}

	scanner, err := scanflow.Conf(*cfgPath, opts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	bench := scanner.Bench()
	if bench == nil {
		return fmt.Errorf("config has no bench; scanctl run drives the simulated bench only")
	}

	scanner.StartMetrics()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = scanner.Shutdown(sctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	positioners, err := pickAxes(bench, *axes)
	if err != nil {
		return err
	}
	startVals, err := parseFloats(*starts)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	stopVals, err := parseFloats(*stops)
	if err != nil {
		return fmt.Errorf("parse -stop: %w", err)
	}
	intervalVals, err := parseInts(*intervals)
	if err != nil {
		return fmt.Errorf("parse -intervals: %w", err)
	}
	if len(intervalVals) == 1 && len(positioners) > 1 {
		tiled := make([]int, len(positioners))
		for i := range tiled {
			tiled[i] = intervalVals[0]
		}
		intervalVals = tiled
	}

	groups := make([][]scanflow.Positioner, len(positioners))
	for i, p := range positioners {
		groups[i] = []scanflow.Positioner{p}
	}

	scanner.SetDetectors(toDetectors(bench)...)
	scanner.SetTriggers(toTriggers(bench)...)

	rec, err := scanner.Execute(ctx, groups, startVals, stopVals, intervalVals)
	if err != nil {
		return err
	}

	printDataset(rec)
	return nil
}

func pickAxes(bench *sim.Bench, csv string) ([]scanflow.Positioner, error) {
	if csv == "" {
		return bench.PositionerPorts(), nil
	}
	var out []scanflow.Positioner
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimSpace(name)
		p, ok := bench.Positioner(name)
		if !ok {
			return nil, fmt.Errorf("unknown bench axis %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}

func toDetectors(bench *sim.Bench) []scanflow.Detector {
	return bench.DetectorPorts()
}

func toTriggers(bench *sim.Bench) []scanflow.Trigger {
	return bench.TriggerPorts()
}

func printDataset(rec *scanflow.RunRecord) {
	fmt.Printf("run %d (%s) complete\n", rec.ID, rec.Key)
	ds, ok := rec.Data.(*sim.Dataset)
	if !ok {
		fmt.Printf("dataset: %v\n", rec.Data)
		return
	}
	fmt.Println(strings.Join(ds.Columns, "\t"))
	for _, row := range ds.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.FormatFloat(v, 'g', 6, 64)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := scanflow.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"scanflow_runs_completed_total": 0,
		"scanflow_run_failures_total":   0,
		"scanflow_scan_phase":           0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] completed=%.0f failed=%.0f phase=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["scanflow_runs_completed_total"],
		targets["scanflow_run_failures_total"],
		targets["scanflow_scan_phase"],
	)
	return nil
}

func parseFloats(csv string) ([]float64, error) {
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInts(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func printUsage() {
	fmt.Printf(`ScanFlow CLI

Usage:
  scanctl <command> [flags]

Commands:
  run        Run a scan over the configured simulated bench
  validate   Load and validate a config file without scanning
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  scanctl run -config ./data/config.yaml -axes mtr:x,mtr:y -start 0 -stop 10 -intervals 5
  scanctl run -config ./data/config.yaml -relative -start -1 -stop 1
  scanctl validate -config ./data/config.yaml
  scanctl stats -url http://localhost:9100/metrics -interval 1s
`)
}
