// Command preview normalizes an Austin 311 CSV export and prints each
// document as a JSON line, without touching a database. It is meant for
// inspecting what the ETL service would store.
//
// Usage:
//
//	go run ./cmd/preview -csv data/mock/austin311_sample.csv -limit 10
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/austin-311-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/austin-311-etl/internal/domain"
)

// previewLine is one line of output.
type previewLine struct {
	Key      string          `json:"key"`
	Line     int             `json:"line"`
	Document domain.Document `json:"document"`
}

type options struct {
	csvPath   string
	limit     int
	skipEmpty bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.csvPath, "csv", "", "path to the Austin 311 CSV export")
	fs.IntVar(&opts.limit, "limit", 0, "maximum number of documents to print (0 = all)")
	fs.BoolVar(&opts.skipEmpty, "skip-empty", true, "skip rows whose cells are all blank")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.csvPath == "" {
		fs.Usage()
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := preview(context.Background(), opts, stdout, logger); err != nil {
		fmt.Fprintf(stderr, "preview: %v\n", err)
		return 1
	}
	return 0
}

func preview(ctx context.Context, opts options, w io.Writer, logger *slog.Logger) error {
	reader, err := csvfile.Open(opts.csvPath, logger)
	if err != nil {
		return err
	}
	defer reader.Close()

	enc := json.NewEncoder(w)
	printed := 0
	for {
		batch, err := reader.ExtractBatch(ctx, 100)
		drained := errors.Is(err, io.EOF)
		if err != nil && !drained {
			return err
		}

		for _, raw := range batch {
			if opts.skipEmpty && domain.IsEmptyRecord(raw) {
				continue
			}
			key, doc := domain.FormatRecord(raw)
			if err := enc.Encode(previewLine{Key: key, Line: raw.Line, Document: doc}); err != nil {
				return fmt.Errorf("encode line %d: %w", raw.Line, err)
			}
			printed++
			if opts.limit > 0 && printed >= opts.limit {
				return nil
			}
		}

		if drained {
			return nil
		}
	}
}
