// Package pipeline holds the status catalogs, kanban column definitions,
// grouping, and the status-move controller shared by leads, properties and
// deals.
package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jordanlanch/realtycrm/pkg/domain"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// Kind identifies an entity type that moves through a pipeline
type Kind string

const (
	KindLead     Kind = "lead"
	KindProperty Kind = "property"
	KindDeal     Kind = "deal"
)

// Kinds lists every pipeline kind in display order
var Kinds = []Kind{KindLead, KindProperty, KindDeal}

// ParseKind accepts singular or plural kind names ("deal", "deals")
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lead", "leads":
		return KindLead, nil
	case "property", "properties":
		return KindProperty, nil
	case "deal", "deals":
		return KindDeal, nil
	}
	return "", domain.NewValidationError(fmt.Sprintf("unknown pipeline kind %q", s))
}

// Collection is the REST collection and cache namespace of the kind
func (k Kind) Collection() string {
	switch k {
	case KindProperty:
		return "properties"
	default:
		return string(k) + "s"
	}
}

// Column is one kanban column: a status id with its display label and color
type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Catalog is the set of statuses a kind accepts and the columns it shows
type Catalog struct {
	Kind    Kind
	Default string
	Columns []Column
	// Extra are valid statuses without a column of their own.
	Extra []string
	// Aliases map legacy or alternate names to canonical statuses.
	Aliases map[string]string
	// NotifyAssignee sends the assigned user a notification on every move.
	NotifyAssignee bool
}

// Label turns a status id into a display label ("in_progress" -> "In Progress")
func Label(status string) string {
	// Casers are stateful, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(status, "_", " "))
}

func columns(colors map[string]string, ids ...string) []Column {
	cols := make([]Column, 0, len(ids))
	for _, id := range ids {
		cols = append(cols, Column{ID: id, Label: Label(id), Color: colors[id]})
	}
	return cols
}

var catalogs = map[Kind]*Catalog{
	KindLead: func() *Catalog {
		cols := columns(map[string]string{
			models.LeadStatusNew:       "#3b82f6",
			models.LeadStatusContacted: "#8b5cf6",
			models.LeadStatusQualified: "#06b6d4",
			models.LeadStatusTour:      "#f59e0b",
			models.LeadStatusOffer:     "#f97316",
			models.LeadStatusClosed:    "#22c55e",
			models.LeadStatusLost:      "#ef4444",
		},
			models.LeadStatusNew,
			models.LeadStatusContacted,
			models.LeadStatusQualified,
			models.LeadStatusTour,
			models.LeadStatusOffer,
			models.LeadStatusClosed,
			models.LeadStatusLost,
		)
		cols[0].Label = "New Leads"
		return &Catalog{
			Kind:    KindLead,
			Default: models.LeadStatusNew,
			Columns: cols,
			Extra:   []string{models.LeadStatusNurturing},
		}
	}(),
	KindProperty: {
		Kind:    KindProperty,
		Default: models.PropertyStatusAvailable,
		Columns: columns(map[string]string{
			models.PropertyStatusAvailable: "#22c55e",
			models.PropertyStatusPending:   "#f59e0b",
			models.PropertyStatusSold:      "#3b82f6",
			models.PropertyStatusWithdrawn: "#6b7280",
		},
			models.PropertyStatusAvailable,
			models.PropertyStatusPending,
			models.PropertyStatusSold,
			models.PropertyStatusWithdrawn,
		),
		Aliases: map[string]string{
			"under_contract": models.PropertyStatusPending,
			"off_market":     models.PropertyStatusWithdrawn,
		},
	},
	KindDeal: {
		Kind:    KindDeal,
		Default: models.DealStatusOffer,
		Columns: columns(map[string]string{
			models.DealStatusOffer:      "#3b82f6",
			models.DealStatusInspection: "#8b5cf6",
			models.DealStatusLegal:      "#f59e0b",
			models.DealStatusPayment:    "#f97316",
			models.DealStatusHandover:   "#22c55e",
			models.DealStatusLost:       "#ef4444",
		},
			models.DealStatusOffer,
			models.DealStatusInspection,
			models.DealStatusLegal,
			models.DealStatusPayment,
			models.DealStatusHandover,
			models.DealStatusLost,
		),
		Aliases: map[string]string{
			"prospect":    models.DealStatusOffer,
			"negotiation": models.DealStatusInspection,
			"contract":    models.DealStatusLegal,
			"closing":     models.DealStatusPayment,
			"closed":      models.DealStatusHandover,
		},
		NotifyAssignee: true,
	},
}

// CatalogFor returns the catalog of a kind, or nil for unknown kinds
func CatalogFor(k Kind) *Catalog {
	return catalogs[k]
}

// ColumnIDs returns the column status ids in display order
func (c *Catalog) ColumnIDs() []string {
	ids := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		ids[i] = col.ID
	}
	return ids
}

// Statuses returns every canonical status the kind accepts
func (c *Catalog) Statuses() []string {
	return append(c.ColumnIDs(), c.Extra...)
}

// IsValid reports whether status is a canonical status of the kind
func (c *Catalog) IsValid(status string) bool {
	for _, s := range c.Statuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Column returns the column definition for a status id
func (c *Catalog) Column(status string) (Column, bool) {
	for _, col := range c.Columns {
		if col.ID == status {
			return col, true
		}
	}
	return Column{}, false
}

// LabelOf returns the column label of a status, falling back to Label
func (c *Catalog) LabelOf(status string) string {
	if col, ok := c.Column(status); ok {
		return col.Label
	}
	return Label(status)
}

// Normalize lower-cases status, resolves aliases and validates the result.
// An empty status yields the kind's default.
func (c *Catalog) Normalize(status string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(status))
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return c.Default, nil
	}
	if canonical, ok := c.Aliases[s]; ok {
		s = canonical
	}
	if !c.IsValid(s) {
		return "", domain.NewValidationError(fmt.Sprintf("invalid %s status %q (valid: %s)",
			c.Kind, status, strings.Join(c.Statuses(), ", ")))
	}
	return s, nil
}

// NormalizeStatus normalizes a status for a kind
func NormalizeStatus(k Kind, status string) (string, error) {
	c := CatalogFor(k)
	if c == nil {
		return "", domain.NewValidationError(fmt.Sprintf("unknown pipeline kind %q", k))
	}
	return c.Normalize(status)
}
