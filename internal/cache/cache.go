// Package cache is the storefront's normalized result cache. Objects carrying
// __typename and id are stored once per identity; results keep only links to
// them plus the shape they selected. Optimistic writes live in layers stacked
// above the confirmed store and are discarded or replaced when their mutation
// settles. Nothing is ever evicted; Reset drops everything.
package cache

import (
	"fmt"
	"sync"

	"github.com/Domenick1991/travelstore/internal/graphql"
)

// Store is the read/write surface shared by the confirmed cache and by
// optimistic layers, so mutation update functions run unchanged against both.
type Store interface {
	Read(op graphql.Operation, vars graphql.Variables, out any) (bool, error)
	Write(op graphql.Operation, vars graphql.Variables, data any) error
	ReadEntity(typename, id string, out any) (bool, error)
	WriteEntity(typename, id string, fields any) error
}

type layer struct {
	id       string
	entities map[string]map[string]any
	results  map[string]entry
	// ops are replayed when a layer below is removed.
	ops []func(*layer) error
}

func newLayer(id string) *layer {
	return &layer{
		id:       id,
		entities: make(map[string]map[string]any),
		results:  make(map[string]entry),
	}
}

type Cache struct {
	mu sync.RWMutex
	// confirmed data
	base *layer
	// optimistic layers, bottom to top
	layers []*layer
}

func New() *Cache {
	return &Cache{base: newLayer("base")}
}

func resultKey(op graphql.Operation, vars graphql.Variables) string {
	return op.Name + vars.Key()
}

func (c *Cache) Read(op graphql.Operation, vars graphql.Variables, out any) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	found, _, err := c.readAt(len(c.layers), resultKey(op, vars), out)
	return found, err
}

func (c *Cache) Write(op graphql.Operation, vars graphql.Variables, data any) error {
	tree, err := decode(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeResult(c.base, 0, resultKey(op, vars), tree)
	return nil
}

func (c *Cache) ReadEntity(typename, id string, out any) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readEntityAt(len(c.layers), typename, id, out)
}

func (c *Cache) WriteEntity(typename, id string, fields any) error {
	tree, err := decode(fields)
	if err != nil {
		return err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return fmt.Errorf("entity %s:%s: fields must be an object", typename, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeEntity(c.base, 0, typename, id, obj)
	return nil
}

// IsOptimistic reports whether the visible result for op+vars, or any entity
// it links to, currently comes from an optimistic layer.
func (c *Cache) IsOptimistic(op graphql.Operation, vars graphql.Variables) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out any
	_, optimistic, _ := c.readAt(len(c.layers), resultKey(op, vars), &out)
	return optimistic
}

// Reset empties the cache, optimistic layers included.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = newLayer("base")
	c.layers = nil
}

// depth 0 is the confirmed store; depth n sees the bottom n optimistic layers.
func (c *Cache) lookup(depth int) func(key string) (map[string]any, bool) {
	return func(key string) (map[string]any, bool) {
		for i := depth - 1; i >= 0; i-- {
			if record, ok := c.layers[i].entities[key]; ok {
				return record, true
			}
		}
		return c.base.entities[key], false
	}
}

func (c *Cache) readAt(depth int, key string, out any) (found, optimistic bool, err error) {
	var (
		e         entry
		fromLayer bool
	)
	for i := depth - 1; i >= 0; i-- {
		if candidate, ok := c.layers[i].results[key]; ok {
			e, found, fromLayer = candidate, true, true
			break
		}
	}
	if !found {
		e, found = c.base.results[key]
	}
	if !found {
		return false, false, nil
	}
	tree, opt := denormalize(e.value, e.sel, c.lookup(depth))
	if _, dangling := e.value.(link); dangling && tree == nil {
		return false, false, nil
	}
	if err := assign(tree, out); err != nil {
		return false, false, err
	}
	return true, opt || fromLayer, nil
}

func (c *Cache) readEntityAt(depth int, typename, id string, out any) (bool, error) {
	record, _ := c.lookup(depth)(typename + ":" + id)
	if record == nil {
		return false, nil
	}
	lookup := c.lookup(depth)
	tree, _ := project(record, fullSelection(record, lookup, 0), lookup)
	if err := assign(tree, out); err != nil {
		return false, err
	}
	return true, nil
}

// fullSelection selects every field of a record, following links a few
// levels deep. Entity reads have no query shape to go by.
func fullSelection(fields map[string]any, lookup func(string) (map[string]any, bool), level int) selection {
	sel := make(selection, len(fields))
	for name, value := range fields {
		sel[name] = valueSelection(value, lookup, level)
	}
	return sel
}

func valueSelection(value any, lookup func(string) (map[string]any, bool), level int) selection {
	if level > 4 {
		return nil
	}
	switch v := value.(type) {
	case link:
		record, _ := lookup(v.Key)
		return fullSelection(record, lookup, level+1)
	case map[string]any:
		return fullSelection(v, lookup, level+1)
	case []any:
		var sel selection
		for _, item := range v {
			sel = unionSelection(sel, valueSelection(item, lookup, level))
		}
		return sel
	default:
		return nil
	}
}

// writeResult stores tree into target, which sits at depth in the stack
// (0 for the confirmed store).
func (c *Cache) writeResult(target *layer, depth int, key string, tree any) {
	value, sel := normalize(tree, c.merger(target, depth))
	target.results[key] = entry{value: value, sel: sel}
}

func (c *Cache) writeEntity(target *layer, depth int, typename, id string, fields map[string]any) {
	normalized, _ := normalize(fields, c.merger(target, depth))
	if obj, ok := normalized.(map[string]any); ok {
		c.merger(target, depth)(typename+":"+id, obj)
	}
}

// merger merges fields into the record visible at depth and stores the
// result in target. Layers hold full copies so removing one never leaves a
// partial record behind.
func (c *Cache) merger(target *layer, depth int) func(key string, fields map[string]any) {
	return func(key string, fields map[string]any) {
		current, ok := target.entities[key]
		if !ok {
			visible, _ := c.lookup(depth)(key)
			current = copyFields(visible)
		}
		mergeFields(current, fields)
		target.entities[key] = current
	}
}
