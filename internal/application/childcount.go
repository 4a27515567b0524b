package application

import (
	"strconv"

	"catalogsync/internal/domain"
)

const unknownCount = -1

type childCount struct {
	synced int
	total  int
}

// ChildCounts tracks the best-effort "synced/total" children ratio shown on
// Subject, Package and Theme rows. Either side may be unknown ("?").
type ChildCounts struct {
	counts [domain.LayerCount]map[int]childCount
}

// NewChildCounts creates an empty ratio cache
func NewChildCounts() *ChildCounts {
	c := &ChildCounts{}
	for i := range c.counts {
		c.counts[i] = make(map[int]childCount)
	}
	return c
}

// Set records a counted ratio side for (layer, id). A reported synced count
// replaces the current one; the total is only filled in while unknown.
// Pass -1 for a side that is not being reported.
func (c *ChildCounts) Set(layer domain.Layer, id, synced, total int) {
	if !layer.HasChildRatio() || id == domain.NoID {
		return
	}
	cur, ok := c.counts[layer][id]
	if !ok {
		c.counts[layer][id] = childCount{synced: synced, total: total}
		return
	}
	if synced != unknownCount {
		cur.synced = synced
	}
	if cur.total == unknownCount {
		cur.total = total
	}
	c.counts[layer][id] = cur
}

// AddSynced adjusts the synced side of (layer, id) by delta
func (c *ChildCounts) AddSynced(layer domain.Layer, id, delta int) {
	if !layer.HasChildRatio() || id == domain.NoID {
		return
	}
	cur, ok := c.counts[layer][id]
	if !ok || cur.synced == unknownCount {
		// without a real count the delta is meaningless
		if !ok {
			c.counts[layer][id] = childCount{synced: unknownCount, total: unknownCount}
		}
		return
	}
	cur.synced = max(cur.synced+delta, 0)
	c.counts[layer][id] = cur
}

// HasTotal reports whether the total side of (layer, id) is known
func (c *ChildCounts) HasTotal(layer domain.Layer, id int) bool {
	cur, ok := c.counts[layer][id]
	return ok && cur.total != unknownCount
}

// Ratio renders "synced/total", or "" for layers without a ratio
func (c *ChildCounts) Ratio(layer domain.Layer, id int) string {
	if !layer.HasChildRatio() {
		return ""
	}
	cur, ok := c.counts[layer][id]
	if !ok {
		return "?/?"
	}
	return countText(cur.synced) + "/" + countText(cur.total)
}

func countText(n int) string {
	if n == unknownCount {
		return "?"
	}
	return strconv.Itoa(n)
}
