package pipeline_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/austin-311-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/austin-311-etl/internal/domain"
	"github.com/couchcryptid/austin-311-etl/internal/observability"
	"github.com/couchcryptid/austin-311-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dateKeys = []string{"createddate", "statuschangedate", "lastupdatedate", "closedate"}

func TestPipeline_WithMockCSVExport(t *testing.T) {
	reader, err := csvfile.Open(filepath.Join("..", "..", "data", "mock", "austin311_sample.csv"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })

	ldr := &mockLoader{}
	p := pipeline.New(reader, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), observability.NewMetricsForTesting(), 2)

	require.NoError(t, p.Run(context.Background()))

	// One blank row is skipped and one row without a request number is rejected.
	assert.Equal(t, pipeline.Stats{Extracted: 5, Skipped: 1, Failed: 1, Loaded: 3}, p.Stats())
	require.Len(t, ldr.loaded, 3)

	byKey := make(map[string]domain.Document, len(ldr.loaded))
	for _, out := range ldr.loaded {
		assert.NotContains(t, out.Document, domain.IdentifierColumn)
		for _, key := range dateKeys {
			assert.NotContains(t, out.Document, key)
		}
		geo, ok := out.Document[domain.GeoColumn].(domain.GeoPoint)
		require.True(t, ok)
		assert.Equal(t, out.Key, geo.Title)
		byKey[out.Key] = out.Document
	}

	t.Run("complete row", func(t *testing.T) {
		doc := byKey["20-00012345"]
		require.NotNil(t, doc)
		assert.Equal(t, "Loose Dog", doc["srdescription"])
		assert.Equal(t, 78701, doc["zipcode"])
		assert.Equal(t, 9, doc["councildistrict"])
		assert.Equal(t, 2020, doc["createdyear"])
		assert.Equal(t, 14, doc["createdhour"])
		assert.Equal(t, 0, doc["closehour"])

		lat, ok := doc[domain.GeoColumn].(domain.GeoPoint).Lat()
		assert.True(t, ok)
		assert.InEpsilon(t, 30.267153, lat, 1e-9)
	})

	t.Run("sparse row", func(t *testing.T) {
		doc := byKey["20-00012346"]
		require.NotNil(t, doc)
		assert.Nil(t, doc["streetnumber"])
		assert.Nil(t, doc["zipcode"])
		assert.Nil(t, doc["latitudecoordinate"])
		assert.Nil(t, doc["statuschangemonth"])
		assert.Nil(t, doc["closeyear"])
		assert.Equal(t, 23, doc["createdhour"])
		assert.Equal(t, domain.GeoPoint{Title: "20-00012346"}, doc[domain.GeoColumn])
	})

	t.Run("impossible status change date", func(t *testing.T) {
		doc := byKey["20-00012348"]
		require.NotNil(t, doc)
		for _, part := range []string{"month", "day", "year", "hour"} {
			assert.Contains(t, doc, "statuschange"+part)
			assert.Nil(t, doc["statuschange"+part])
		}
		assert.Equal(t, 5, doc["closemonth"])
		assert.Equal(t, 16, doc["closehour"])
	})
}
