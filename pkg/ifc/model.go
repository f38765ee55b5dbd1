package ifc

import (
	"sort"
	"strings"
	"sync"
)

// Model is a set of entity instances keyed by their file-local id.
type Model struct {
	// Schema is the FILE_SCHEMA identifier, e.g. "IFC4".
	Schema string

	entities map[int]*Entity

	mu      sync.Mutex
	ids     []int
	inverse map[int][]*Entity
}

// NewModel returns an empty model for the given schema identifier.
func NewModel(schemaID string) *Model {
	return &Model{
		Schema:   schemaID,
		entities: make(map[int]*Entity),
	}
}

// Add inserts an entity instance. The type name may be given in any case;
// known types are stored in their schema spelling. Adding an id twice
// replaces the earlier instance.
func (m *Model) Add(id int, typ string, attrs ...Value) *Entity {
	e := &Entity{ID: id, Type: canonicalName(typ), Attrs: attrs, model: m}
	m.mu.Lock()
	m.entities[id] = e
	m.ids = nil
	m.inverse = nil
	m.mu.Unlock()
	return e
}

// Entity returns the instance with the given id, or nil.
func (m *Model) Entity(id int) *Entity {
	return m.entities[id]
}

// Len returns the number of instances.
func (m *Model) Len() int {
	return len(m.entities)
}

func (m *Model) sortedIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = make([]int, 0, len(m.entities))
		for id := range m.entities {
			m.ids = append(m.ids, id)
		}
		sort.Ints(m.ids)
	}
	return m.ids
}

// Entities returns all instances ordered by id.
func (m *Model) Entities() []*Entity {
	ids := m.sortedIDs()
	out := make([]*Entity, len(ids))
	for i, id := range ids {
		out[i] = m.entities[id]
	}
	return out
}

// ByType returns the instances of type t and its subtypes, ordered by id.
func (m *Model) ByType(t string) []*Entity {
	var out []*Entity
	for _, id := range m.sortedIDs() {
		if e := m.entities[id]; e.IsA(t) {
			out = append(out, e)
		}
	}
	return out
}

// Types returns the distinct type names present in the model.
func (m *Model) Types() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range m.entities {
		if !seen[e.Type] {
			seen[e.Type] = true
			out = append(out, e.Type)
		}
	}
	sort.Strings(out)
	return out
}

// Referencing returns every instance that holds a reference to target,
// directly or inside an aggregate, ordered by id.
func (m *Model) Referencing(target *Entity) []*Entity {
	if target == nil {
		return nil
	}
	ids := m.sortedIDs()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inverse == nil {
		m.inverse = make(map[int][]*Entity)
		for _, id := range ids {
			e := m.entities[id]
			seen := make(map[int]bool)
			for _, v := range e.Attrs {
				collectRefs(v, func(r int) {
					if !seen[r] {
						seen[r] = true
						m.inverse[r] = append(m.inverse[r], e)
					}
				})
			}
		}
	}
	return m.inverse[target.ID]
}

func collectRefs(v Value, fn func(int)) {
	switch x := v.(type) {
	case Ref:
		fn(int(x))
	case List:
		for _, item := range x {
			collectRefs(item, fn)
		}
	case Typed:
		collectRefs(x.Value, fn)
	}
}

// Inverse returns relationship instances of relType whose attribute attr
// refers to target, directly or as a member of an aggregate. This is the
// lookup behind IFC inverse attributes such as HasOpenings (IfcRelVoidsElement
// via RelatingBuildingElement) or IsDefinedBy (IfcRelDefinesByProperties via
// RelatedObjects).
func (m *Model) Inverse(target *Entity, relType, attr string) []*Entity {
	var out []*Entity
	for _, rel := range m.Referencing(target) {
		if !rel.IsA(relType) {
			continue
		}
		found := false
		collectRefs(rel.Attr(attr), func(r int) {
			if r == target.ID {
				found = true
			}
		})
		if found {
			out = append(out, rel)
		}
	}
	return out
}

// Collect returns the distinct instances of the given types, ordered by id.
// An instance matching several of the types is returned once.
func (m *Model) Collect(types ...string) []*Entity {
	var out []*Entity
	for _, id := range m.sortedIDs() {
		e := m.entities[id]
		for _, t := range types {
			if strings.TrimSpace(t) != "" && e.IsA(t) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
