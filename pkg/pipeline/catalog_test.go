package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/domain"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"lead": KindLead, "Leads": KindLead,
		"property": KindProperty, "properties": KindProperty,
		"deal": KindDeal, " deals ": KindDeal,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("tasks")
	assert.True(t, domain.IsValidation(err))
}

func TestKind_Collection(t *testing.T) {
	assert.Equal(t, "leads", KindLead.Collection())
	assert.Equal(t, "properties", KindProperty.Collection())
	assert.Equal(t, "deals", KindDeal.Collection())
}

func TestLeadCatalog_Columns(t *testing.T) {
	cat := CatalogFor(KindLead)
	require.NotNil(t, cat)

	assert.Equal(t, []string{"new", "contacted", "qualified", "tour", "offer", "closed", "lost"}, cat.ColumnIDs())
	assert.Equal(t, "New Leads", cat.Columns[0].Label)
	assert.Equal(t, "Qualified", cat.Columns[2].Label)
	assert.True(t, cat.IsValid("nurturing"))
	_, hasColumn := cat.Column("nurturing")
	assert.False(t, hasColumn)
}

func TestCatalog_Normalize(t *testing.T) {
	tests := []struct {
		kind    Kind
		in      string
		want    string
		wantErr bool
	}{
		{KindLead, "Qualified", "qualified", false},
		{KindLead, "", "new", false},
		{KindLead, "negotiating", "", true},
		{KindProperty, "under_contract", "pending", false},
		{KindProperty, "Off Market", "withdrawn", false},
		{KindProperty, "sold", "sold", false},
		{KindDeal, "closing", "payment", false},
		{KindDeal, "closed", "handover", false},
		{KindDeal, "prospect", "offer", false},
		{KindDeal, "won", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeStatus(tt.kind, tt.in)
		if tt.wantErr {
			assert.True(t, domain.IsValidation(err), "%s %q", tt.kind, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %q", tt.kind, tt.in)
	}

	_, err := NormalizeStatus(Kind("task"), "pending")
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "In Progress", Label("in_progress"))
	assert.Equal(t, "Handover", Label("handover"))
	assert.Equal(t, "Handover", CatalogFor(KindDeal).LabelOf("handover"))
	assert.Equal(t, "Nurturing", CatalogFor(KindLead).LabelOf("nurturing"))
}
