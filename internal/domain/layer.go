package domain

import (
	"fmt"
	"strings"
)

// Layer is one depth of the catalog hierarchy
type Layer int

const (
	LayerSubject           Layer = iota // Subject
	LayerPackage                        // Subject > Package
	LayerTheme                          // Subject > Package > Theme
	LayerKnowledge                      // Theme > Theme part > Knowledge
	LayerSpecificKnowledge              // single Knowledge record with its type facet
)

// LayerCount is the number of hierarchy layers
const LayerCount = 5

// NoID marks a missing selection or an unpaired item
const NoID = -1

func (l Layer) String() string {
	switch l {
	case LayerSubject:
		return "Subject"
	case LayerPackage:
		return "Package"
	case LayerTheme:
		return "Theme"
	case LayerKnowledge:
		return "Knowledge"
	case LayerSpecificKnowledge:
		return "SpecificKnowledge"
	default:
		return "Unknown"
	}
}

// Valid reports whether l is one of the five hierarchy layers
func (l Layer) Valid() bool {
	return l >= LayerSubject && l <= LayerSpecificKnowledge
}

// Parent returns the layer above l. Subject is its own parent.
func (l Layer) Parent() Layer {
	if l <= LayerSubject {
		return LayerSubject
	}
	return l - 1
}

// Child returns the layer below l. SpecificKnowledge is its own child.
func (l Layer) Child() Layer {
	if l >= LayerSpecificKnowledge {
		return LayerSpecificKnowledge
	}
	return l + 1
}

// IsLeaf reports whether l is the deepest (view-only) layer
func (l Layer) IsLeaf() bool {
	return l == LayerSpecificKnowledge
}

// PairLayer returns the layer under which pairs of l are recorded.
// SpecificKnowledge has no mapping slot of its own and collapses onto Knowledge.
func (l Layer) PairLayer() Layer {
	if l == LayerSpecificKnowledge {
		return LayerKnowledge
	}
	return l
}

// ItemTypeCode returns the item type code the search index uses for l
func (l Layer) ItemTypeCode() int {
	return int(l.PairLayer())
}

// HasChildRatio reports whether rows of l carry a synced-children ratio
func (l Layer) HasChildRatio() bool {
	return l == LayerSubject || l == LayerPackage || l == LayerTheme
}

// ParseLayer parses a layer name (case-insensitive) or its ordinal
func ParseLayer(s string) (Layer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l := LayerSubject; l <= LayerSpecificKnowledge; l++ {
		if s == strings.ToLower(l.String()) || s == fmt.Sprint(int(l)) {
			return l, nil
		}
	}
	switch s {
	case "specific", "knowledgetype", "knowledge-type":
		return LayerSpecificKnowledge, nil
	}
	return LayerSubject, fmt.Errorf("unknown layer: %q", s)
}
