// Command validate checks a dashboard dataset file before it is deployed. It
// decodes the YAML strictly, validates every record, and prints a summary.
//
// Usage:
//
//	go run ./cmd/validate -dataset data/seed.yaml
//
// With no -dataset flag the embedded seed dataset is checked.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/disaster-map-service/internal/dataset"
	"github.com/couchcryptid/disaster-map-service/internal/domain"
)

func main() {
	path := flag.String("dataset", "", "path to a dataset YAML file (default: embedded seed)")
	flag.Parse()

	os.Exit(run(*path, os.Stdout))
}

func run(path string, out io.Writer) int {
	ds, err := dataset.Load(path)
	if err != nil {
		fmt.Fprintf(out, "FAIL: %v\n", err)
		return 1
	}

	source := path
	if source == "" {
		source = "embedded seed"
	}
	fmt.Fprintf(out, "dataset: %s\n", source)
	fmt.Fprintf(out, "  text items:         %d\n", len(ds.TextItems))
	fmt.Fprintf(out, "  disasters:          %d (%d active)\n", len(ds.Disasters), countActive(ds.Disasters))
	fmt.Fprintf(out, "  relief centers:     %d (%d operational)\n",
		len(ds.ReliefCenters), len(ds.CentersByStatus(domain.CenterOperational)))
	fmt.Fprintf(out, "  emergency contacts: %d\n", len(ds.Contacts))

	fmt.Fprintln(out, "PASS")
	return 0
}

func countActive(disasters []domain.DisasterRecord) int {
	n := 0
	for _, d := range disasters {
		if d.Status == domain.StatusActive {
			n++
		}
	}
	return n
}
