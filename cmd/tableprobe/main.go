// Command tableprobe samples the head of a dataset and prints a ready-to-edit
// pipeline config: delimiter sniffing, header normalization, per-column type
// inference, and date layout detection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"cleanse/internal/config"
	"cleanse/internal/probe"
)

var (
	flagURL       = flag.String("url", "", "URL of the dataset to sample (http(s):// or file://)")
	flagBytes     = flag.Int("bytes", 0, "Number of bytes to sample from the start of the file (0 = default)")
	flagDelimiter = flag.String("delimiter", "", "Field delimiter (single character or \"tab\"); empty sniffs it")
	flagName      = flag.String("name", "", "Job name (used in DB table and config). Empty derives one from the URL")
	flagBackend   = flag.String("backend", "", "Storage backend for the generated config (postgres, sqlite, mysql, mssql); empty omits storage")
	flagInsecure  = flag.Bool("insecure", false, "Skip TLS certificate verification when sampling over HTTPS")
	flagOut       = flag.String("out", "", "Write the config to this path instead of stdout")
)

func main() {
	flag.Parse()

	if *flagURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		flag.Usage()
		os.Exit(2)
	}

	opt := probe.Options{
		URL:              *flagURL,
		MaxBytes:         *flagBytes,
		Name:             *flagName,
		Backend:          *flagBackend,
		AllowInsecureTLS: *flagInsecure,
	}
	if *flagDelimiter != "" {
		opt.Delimiter = probe.DecodeDelimiter(*flagDelimiter)
	}

	p, err := probe.Probe(context.Background(), opt)
	if err != nil {
		log.Fatalf("%v", err)
	}

	body, err := config.MarshalConfig(p)
	if err != nil {
		log.Fatalf("marshal config: %v", err)
	}
	body = append(body, '\n')

	if *flagOut == "" {
		os.Stdout.Write(body)
		return
	}
	if err := os.WriteFile(*flagOut, body, 0o644); err != nil {
		log.Fatalf("write %s: %v", *flagOut, err)
	}
	log.Printf("wrote %s (job=%s, %d column type(s))", *flagOut, p.Job, lenTypes(p))
}

func lenTypes(p config.Pipeline) int {
	if p.Clean.Coerce == nil {
		return 0
	}
	return len(p.Clean.Coerce.Types)
}
