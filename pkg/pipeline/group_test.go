package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/models"
)

func leadStatus(l *models.Lead) string { return l.Status }

func leadsWithStatuses(statuses ...string) []*models.Lead {
	leads := make([]*models.Lead, len(statuses))
	for i, s := range statuses {
		leads[i] = &models.Lead{ID: string(rune('a' + i)), Status: s}
	}
	return leads
}

func TestGroup_CanonicalLeadColumns(t *testing.T) {
	leads := leadsWithStatuses("new", "new", "contacted", "qualified", "closed")
	cols := CatalogFor(KindLead).Columns

	buckets := Group(leads, cols, leadStatus)

	sizes := make([]int, len(cols))
	for i, col := range cols {
		sizes[i] = len(buckets[col.ID])
	}
	assert.Equal(t, []int{2, 1, 1, 0, 0, 1, 0}, sizes)
}

func TestGroup_StableWithinBucket(t *testing.T) {
	leads := leadsWithStatuses("new", "lost", "new", "new")
	buckets := Group(leads, CatalogFor(KindLead).Columns, leadStatus)

	require.Len(t, buckets["new"], 3)
	assert.Equal(t, "a", buckets["new"][0].ID)
	assert.Equal(t, "c", buckets["new"][1].ID)
	assert.Equal(t, "d", buckets["new"][2].ID)
}

func TestGroup_DropsUnknownStatuses(t *testing.T) {
	leads := leadsWithStatuses("nurturing", "archived", "new")
	cols := CatalogFor(KindLead).Columns
	buckets := Group(leads, cols, leadStatus)

	assert.Len(t, buckets, len(cols))
	total := 0
	for _, col := range cols {
		for _, l := range buckets[col.ID] {
			assert.NotEqual(t, "nurturing", l.Status)
			assert.NotEqual(t, "archived", l.Status)
		}
		total += len(buckets[col.ID])
	}
	assert.Equal(t, 1, total)
}

func TestGroup_EmptyInputHasEveryColumn(t *testing.T) {
	cols := CatalogFor(KindDeal).Columns
	buckets := Group([]*models.Deal(nil), cols, func(d *models.Deal) string { return d.Status })

	require.Len(t, buckets, len(cols))
	for _, col := range cols {
		assert.NotNil(t, buckets[col.ID])
		assert.Empty(t, buckets[col.ID])
	}
}

func TestBoard_ColumnOrderAndCounts(t *testing.T) {
	props := []*models.Property{
		{ID: "p1", Status: "sold"},
		{ID: "p2", Status: "available"},
		{ID: "p3", Status: "available"},
	}
	board := Board(KindProperty, props, func(p *models.Property) string { return p.Status })

	assert.Equal(t, "property", board.Kind)
	require.Len(t, board.Columns, 4)
	assert.Equal(t, "available", board.Columns[0].ID)
	assert.Equal(t, 2, board.Columns[0].Count)
	assert.Equal(t, "p2", board.Columns[0].Items[0].(*models.Property).ID)
	assert.Equal(t, 0, board.Columns[1].Count)
	assert.Equal(t, 1, board.Columns[2].Count)
}
