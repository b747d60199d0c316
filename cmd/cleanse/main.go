package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cleanse/internal/config"
	"cleanse/internal/csv"
	"cleanse/internal/datasource"
	"cleanse/internal/datasource/file"
	"cleanse/internal/metrics"
	"cleanse/internal/metrics/datadog"
	"cleanse/internal/metrics/prompush"
	"cleanse/internal/pipeline"
	"cleanse/internal/render"
	"cleanse/internal/storage"
	"cleanse/internal/table"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "cleanse/internal/storage/all"
)

// main is the entry point for the cleanse binary. It loads one or more
// pipeline configs, optionally initializes a metrics backend, and executes
// the clean/aggregate/load runs.
func main() {
	var (
		cfgPath           string
		cfgListPath       string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config JSON path")
	flag.StringVar(&cfgListPath, "config-list", "", "file listing pipeline config paths, one per line")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "127.0.0.1:8125", "dogstatsd address for the datadog backend")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	workers := flag.Int("workers", 0, "max concurrent pipelines for -config-list (0 = one goroutine per pipeline)")

	flag.Parse()

	paths, err := configPaths(cfgPath, cfgListPath)
	if err != nil {
		fatalf("%v", err)
	}

	pipelines := make([]config.Pipeline, 0, len(paths))
	hasError := false
	for _, path := range paths {
		p, err := loadConfig(path)
		if err != nil {
			fatalf("%v", err)
		}
		for _, iss := range config.ValidatePipeline(p) {
			fmt.Fprintf(os.Stderr, "%s: %s: %s: %s\n", path, iss.Severity, iss.Path, iss.Message)
			if iss.Severity == config.SeverityError {
				hasError = true
			}
		}
		pipelines = append(pipelines, p)
	}
	if hasError {
		log.Printf("configuration is invalid")
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid (%d pipeline(s))", len(pipelines))
		os.Exit(0)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, datadogAddrFlg, pipelines, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	if err := runPipelines(ctx, pipelines, *workers, *verbose); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// configPaths resolves the -config/-config-list flags into the list of
// pipeline files to run.
func configPaths(cfgPath, cfgListPath string) ([]string, error) {
	switch {
	case cfgPath != "" && cfgListPath != "":
		return nil, fmt.Errorf("-config and -config-list are mutually exclusive")
	case cfgPath != "":
		return []string{cfgPath}, nil
	case cfgListPath != "":
		paths, err := file.ReadList(cfgListPath)
		if err != nil {
			return nil, fmt.Errorf("read config list: %w", err)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("config list %s is empty", cfgListPath)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("one of -config or -config-list is required")
	}
}

func loadConfig(path string) (config.Pipeline, error) {
	var p config.Pipeline
	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return p, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// setupMetrics wires the selected backend into the metrics package. Backend
// selection falls back from flag to the METRICS_BACKEND env var.
func setupMetrics(backendName, gwURL, ddAddr string, pipelines []config.Pipeline, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		jobName := "cleanse"
		if len(pipelines) == 1 && pipelines[0].Job != "" {
			jobName = pipelines[0].Job
		}
		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, jobName)
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: ddAddr, Namespace: "cleanse"})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: addr=%v, backend=%v", ddAddr, backendName)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// runPipelines fetches and parses every input, executes the cleaning stages
// concurrently, then persists and renders each result in config order.
func runPipelines(ctx context.Context, pipelines []config.Pipeline, workers int, verbose bool) error {
	if workers == 0 {
		// The flag wins; otherwise the configs may cap concurrency.
		for _, p := range pipelines {
			if p.Runtime.Workers > workers {
				workers = p.Runtime.Workers
			}
		}
	}

	jobs := make([]pipeline.Job, 0, len(pipelines))
	for _, p := range pipelines {
		name := jobName(p)
		input, skipped, err := fetchAndParse(ctx, p)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if skipped > 0 {
			log.Printf("%s: parser skipped %d malformed row(s)", name, skipped)
		}
		if verbose {
			log.Printf("%s: parsed rows=%d cols=%d", name, input.NumRows(), input.NumCols())
		}

		opt, err := pipeline.FromConfig(p)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		jobs = append(jobs, pipeline.Job{Name: name, Input: input, Options: opt})
	}

	start := time.Now()
	results, err := pipeline.RunAll(ctx, jobs, workers)
	if err != nil {
		for _, p := range pipelines {
			metrics.RecordStage(jobName(p), "pipeline", err, time.Since(start))
		}
		return err
	}

	for i, p := range pipelines {
		name := jobName(p)
		res := results[i]
		recordRun(name, res.Report, time.Since(start))
		logReport(name, res.Report)

		if p.Storage != nil {
			if err := store(ctx, name, p, res.Table); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		if p.Render != nil {
			if err := render.Render(res.Table, render.FromConfig(*p.Render)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func jobName(p config.Pipeline) string {
	if p.Job != "" {
		return p.Job
	}
	return "cleanse"
}

// fetchAndParse opens the configured source and parses it into a raw table.
func fetchAndParse(ctx context.Context, p config.Pipeline) (*table.Table, int, error) {
	src, err := datasource.New(p.Source)
	if err != nil {
		return nil, 0, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	if p.Parser.Kind != "csv" {
		return nil, 0, fmt.Errorf("unsupported parser kind %q", p.Parser.Kind)
	}
	return csv.NewParser(csv.FromConfig(p.Parser.Options)).Parse(rc)
}

// store creates the destination table when configured and bulk loads the
// final rows.
func store(ctx context.Context, name string, p config.Pipeline, t *table.Table) error {
	cfg := storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DB.DSN, Table: p.Storage.DB.Table}
	repo, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if p.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, p.Storage.Kind, repo, p.Storage.DB.Table, t); err != nil {
			return err
		}
	}

	written, err := storage.Load(ctx, repo, t, p.Storage.DB.BatchSize)
	if err != nil {
		return err
	}
	metrics.RecordRows(name, "written", written)
	batch := p.Storage.DB.BatchSize
	if batch <= 0 {
		batch = storage.DefaultBatchSize
	}
	metrics.RecordBatches(name, (written+int64(batch)-1)/int64(batch))
	log.Printf("%s: loaded rows=%d table=%s kind=%s", name, written, p.Storage.DB.Table, p.Storage.Kind)
	return nil
}

func recordRun(name string, rep pipeline.Report, elapsed time.Duration) {
	metrics.RecordStage(name, "pipeline", nil, elapsed)
	metrics.RecordRows(name, "input", int64(rep.InputRows))
	metrics.RecordRows(name, "output", int64(rep.OutputRows))
	metrics.RecordRows(name, "missing_dropped", int64(rep.Removed[pipeline.StageMissing]))
	metrics.RecordRows(name, "dedup_dropped", int64(rep.Removed[pipeline.StageDedup]))
	var coerceFails int64
	for _, n := range rep.CoerceFailures {
		coerceFails += int64(n)
	}
	metrics.RecordRows(name, "coerce_failures", coerceFails)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func logReport(name string, rep pipeline.Report) {
	log.Printf("%s: run=%s rows_in=%d rows_out=%d removed=%d",
		name, rep.RunID, rep.InputRows, rep.OutputRows, rep.TotalRemoved())
	for stage, n := range rep.Removed {
		if n > 0 {
			log.Printf("%s: stage=%s removed=%d", name, stage, n)
		}
	}
}
