package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/austin-311-etl/internal/domain"
)

// RecordTransformer implements Transformer using the domain normalizer.
type RecordTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a RecordTransformer.
func NewTransformer(logger *slog.Logger) *RecordTransformer {
	return &RecordTransformer{logger: logger}
}

func (t *RecordTransformer) Transform(_ context.Context, raw domain.RawRecord) (domain.OutputDocument, error) {
	out, err := domain.NewOutputDocument(raw)
	if err != nil {
		return domain.OutputDocument{}, fmt.Errorf("line %d: %w", raw.Line, err)
	}
	t.logger.Debug("record normalized", "key", out.Key, "line", raw.Line)
	return out, nil
}
