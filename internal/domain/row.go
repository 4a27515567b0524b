package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Row is the ordered list of display fields of one item.
// Deeper layers show more ancestor columns.
type Row struct {
	Layer  Layer
	Fields []string
}

// ExpectedColumnCount returns how many display fields a row of the layer holds
func ExpectedColumnCount(layer Layer) int {
	switch layer {
	case LayerSubject:
		return 1
	case LayerPackage:
		return 2
	case LayerTheme:
		return 3
	case LayerKnowledge:
		return 5 // subject, package, theme, theme part, knowledge
	case LayerSpecificKnowledge:
		return 6 // + knowledge type
	default:
		return 0
	}
}

// ColumnNames returns the header of each display field of the layer
func ColumnNames(layer Layer) []string {
	names := []string{"Subject", "Package", "Theme", "Theme part", "Knowledge", "Knowledge type"}
	return names[:ExpectedColumnCount(layer)]
}

// nameIndex is the position of the item's own name within its row
func nameIndex(layer Layer) int {
	switch layer {
	case LayerKnowledge, LayerSpecificKnowledge:
		return 4
	default:
		return ExpectedColumnCount(layer) - 1
	}
}

// NewRow builds a row for the layer, padding or truncating fields to the expected width
func NewRow(layer Layer, fields ...string) Row {
	n := ExpectedColumnCount(layer)
	padded := make([]string, n)
	for i := 0; i < n && i < len(fields); i++ {
		padded[i] = CleanField(fields[i])
	}
	return Row{Layer: layer, Fields: padded}
}

// IsEmpty reports whether the row carries no item (unresolvable or unpaired)
func (r Row) IsEmpty() bool {
	for _, f := range r.Fields {
		if f != "" {
			return false
		}
	}
	return true
}

// Name returns the item's own display name
func (r Row) Name() string {
	i := nameIndex(r.Layer)
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// String joins the fields with " / "
func (r Row) String() string {
	return strings.Join(r.Fields, " / ")
}

// CleanField collapses newlines, trims surrounding whitespace and composes
// combining marks (NFC), so the same name reads the same from either catalog
func CleanField(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return norm.NFC.String(strings.TrimSpace(s))
}

// DeletedRow is the marker row shown for a paired item that no longer resolves
func DeletedRow(layer Layer, id int) Row {
	row := NewRow(layer)
	if len(row.Fields) > 0 {
		row.Fields[nameIndex(layer)] = fmt.Sprintf("deleted item - ID: %d", id)
	}
	return row
}

// ItemRecord is one row returned by a catalog listing
type ItemRecord struct {
	ID              int
	Row             Row
	KnowledgeTypeID int // NoID outside the Knowledge layers
}
