package schedule

import (
	"crewboard/internal/domain"
)

// Catalog holds the read-only resource and work item lists a board session is
// started with. Lookups are by id; the catalog is never mutated after
// construction.
type Catalog struct {
	resources map[string]domain.Resource
	items     map[string]domain.WorkItem
	order     []string
}

func NewCatalog(resources []domain.Resource, items []domain.WorkItem) Catalog {
	c := Catalog{
		resources: make(map[string]domain.Resource, len(resources)),
		items:     make(map[string]domain.WorkItem, len(items)),
	}
	for _, r := range resources {
		if _, ok := c.resources[r.ID]; ok {
			continue
		}
		c.resources[r.ID] = r
		c.order = append(c.order, r.ID)
	}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func (c Catalog) Resource(id string) (domain.Resource, bool) {
	r, ok := c.resources[id]
	return r, ok
}

func (c Catalog) Item(id string) (domain.WorkItem, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Resources returns the resource rows in registration order.
func (c Catalog) Resources() []domain.Resource {
	out := make([]domain.Resource, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.resources[id])
	}
	return out
}

func (c Catalog) Items() []domain.WorkItem {
	out := make([]domain.WorkItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	return out
}
