package main

import (
	"io"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/presbrey/update-timeouts/internal/patch"
)

func init() {
	godotenv.Load()

	// log lines will include file name and line number
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func main() {
	cfg, err := env.ParseAs[patch.Config]()
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	if err := run(&cfg, "", os.Stdout, os.Stderr); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}

// run patches the default files under dir. Per-file failures are reported
// on stdout and never returned.
func run(cfg *patch.Config, dir string, stdout, stderr io.Writer) error {
	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		return err
	}

	patcher := patch.NewPatcher()
	patcher.Dir = dir
	patcher.Output = stdout
	patcher.Log = logger

	results := patcher.Run()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.WithField("files", len(results)).WithField("failed", failed).Info("run complete")
	return nil
}
