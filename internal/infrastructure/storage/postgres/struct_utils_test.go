package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
)

type sampleDocument struct {
	entity.BaseDocument
	Supplier string   `db:"supplier_name"`
	Items    []string `db:"-"`
	Scratch  string
}

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[sampleDocument]()

	for _, expected := range []string{"id", "number", "version", "created_at", "supplier_name"} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Items")
	assert.Equal(t, "supplier_name", cols[len(cols)-1])
}

func TestStructToMap(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	doc := &sampleDocument{
		BaseDocument: entity.NewBaseDocument(now, "admin-1"),
		Supplier:     "Farm Co",
	}
	doc.Number = "PO-2026-00001"

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, "PO-2026-00001", m["number"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "Farm Co", m["supplier_name"])
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap((*sampleDocument)(nil)))
}

func TestPickColumns(t *testing.T) {
	data := map[string]any{"id": id.New(), "name": "x", "version": 3, "extra": true}

	got := PickColumns(data, []string{"id", "name", "version"}, "id")

	assert.Equal(t, map[string]any{"name": "x", "version": 3}, got)
}
