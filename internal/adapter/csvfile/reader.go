package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/austin-311-etl/internal/domain"
)

// Reader streams raw records from an Austin 311 CSV export.
// It implements pipeline.BatchExtractor.
type Reader struct {
	closer  io.Closer
	csv     *csv.Reader
	columns []string
	logger  *slog.Logger
}

// Open opens the export at path and reads its header line.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	r, err := NewReader(f, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	logger.Info("csv export opened", "path", path, "columns", len(r.columns))
	return r, nil
}

// NewReader reads and normalizes the header line from src.
func NewReader(src io.Reader, logger *slog.Logger) (*Reader, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	return &Reader{
		csv:     cr,
		columns: domain.NormalizeColumns(header),
		logger:  logger,
	}, nil
}

// Columns returns the normalized header.
func (r *Reader) Columns() []string {
	return r.columns
}

// ExtractBatch reads up to batchSize rows. It returns io.EOF together with
// any rows read before the end of the file.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	batch := make([]domain.RawRecord, 0, batchSize)

	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		cells, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return batch, io.EOF
		}
		if err != nil {
			return batch, fmt.Errorf("read row: %w", err)
		}
		line, _ := r.csv.FieldPos(0)

		if len(cells) != len(r.columns) {
			r.logger.Debug("row width differs from header",
				"line", line, "cells", len(cells), "columns", len(r.columns))
		}

		record := domain.NewRawRecord(r.columns, cells)
		record.Line = line
		batch = append(batch, record)
	}

	return batch, nil
}

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
