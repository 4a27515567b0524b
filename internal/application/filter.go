package application

import (
	"fmt"
	"slices"

	"catalogsync/internal/domain"
)

// Filter is the navigation state of one catalog side: the current layer, the
// ids displayed per layer (in row order) and the selected parent id that
// scopes each layer's query.
type Filter struct {
	layer  domain.Layer
	ids    [domain.LayerCount][]int
	parent [domain.LayerCount]int
}

// NewFilter creates a filter positioned on the Subject layer with nothing selected
func NewFilter() *Filter {
	f := &Filter{}
	for i := range f.parent {
		f.parent[i] = domain.NoID
	}
	return f
}

// Layer returns the current layer
func (f *Filter) Layer() domain.Layer { return f.layer }

// SetLayer moves to layer without touching any selection
func (f *Filter) SetLayer(layer domain.Layer) { f.layer = layer }

// SetIDs records the ids currently displayed for layer
func (f *Filter) SetIDs(layer domain.Layer, ids []int) {
	f.ids[layer] = slices.Clone(ids)
}

// IDs returns the ids displayed at the current layer. The SpecificKnowledge
// view shows at most the single selected knowledge record.
func (f *Filter) IDs() []int {
	if f.layer.IsLeaf() {
		return []int{f.parent[f.layer]}
	}
	return slices.Clone(f.ids[f.layer])
}

// IDByRow returns the id shown at row of the current layer, or NoID when out
// of range. On the SpecificKnowledge layer row is ignored.
func (f *Filter) IDByRow(row int) int {
	if f.layer.IsLeaf() {
		return f.parent[f.layer]
	}
	ids := f.ids[f.layer]
	if row < 0 || row >= len(ids) {
		return domain.NoID
	}
	return ids[row]
}

// ParentID returns the selected parent id scoping the current layer
func (f *Filter) ParentID() int { return f.parent[f.layer] }

// Selected returns the id selected at layer (the parent of the layer below)
func (f *Filter) Selected(layer domain.Layer) int {
	if layer.IsLeaf() {
		return domain.NoID
	}
	return f.parent[layer+1]
}

// SubjectID returns the selected subject id
func (f *Filter) SubjectID() int { return f.parent[domain.LayerPackage] }

// SetLayerID maps a row index of the previous layer's displayed ids into the
// selected parent of the current layer. Any out-of-range index resets the
// selection to NoID.
func (f *Filter) SetLayerID(index int) {
	if f.layer == domain.LayerSubject {
		f.parent[f.layer] = domain.NoID
		return
	}
	prev := f.ids[f.layer-1]
	if index < 0 || index >= len(prev) {
		f.parent[f.layer] = domain.NoID
		return
	}
	f.parent[f.layer] = prev[index]
}

// Forward descends into the item displayed at row
func (f *Filter) Forward(row int) error {
	if f.layer.IsLeaf() {
		return fmt.Errorf("%w: %s has no child layer", ErrInvalidOperation, f.layer)
	}
	if row < 0 || row >= len(f.ids[f.layer]) {
		return &ValidationError{Field: "row", Message: fmt.Sprintf("no row %d on %s", row, f.layer)}
	}
	f.layer = f.layer.Child()
	f.SetLayerID(row)
	return nil
}

// Back moves up one layer, keeping the selection made there
func (f *Filter) Back() error {
	if f.layer == domain.LayerSubject {
		return fmt.Errorf("%w: already at %s", ErrInvalidOperation, f.layer)
	}
	f.layer = f.layer.Parent()
	return nil
}

// SelectPath positions the filter directly below a chain of selected ids,
// starting at the subject: [subject] lands on Package, [subject, package] on
// Theme and so on.
func (f *Filter) SelectPath(chain ...int) error {
	if len(chain) >= domain.LayerCount {
		return &ValidationError{Field: "path", Message: fmt.Sprintf("at most %d ids", domain.LayerCount-1)}
	}
	for i := range f.parent {
		f.parent[i] = domain.NoID
	}
	for i, id := range chain {
		f.parent[i+1] = id
	}
	f.layer = domain.Layer(len(chain))
	return nil
}

// Clone returns an independent copy of the filter
func (f *Filter) Clone() *Filter {
	c := &Filter{layer: f.layer, parent: f.parent}
	for i := range f.ids {
		c.ids[i] = slices.Clone(f.ids[i])
	}
	return c
}

// Restore overwrites the filter with a previously taken snapshot
func (f *Filter) Restore(snapshot *Filter) {
	*f = *snapshot.Clone()
}

// Swap exchanges the navigation state with peer. Each side keeps its own
// layer, ids and selection.
func (f *Filter) Swap(peer *Filter) {
	*f, *peer = *peer, *f
}
