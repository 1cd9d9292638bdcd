package cache

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Domenick1991/travelstore/internal/graphql"
)

// Optimistic is a write layer owned by one in-flight mutation. Reads through
// it see the stack up to and including the layer.
type Optimistic struct {
	c  *Cache
	id string
}

var _ Store = (*Optimistic)(nil)
var _ Store = (*Cache)(nil)

// BeginOptimistic pushes a new, empty layer on top of the stack.
func (c *Cache) BeginOptimistic() *Optimistic {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	c.layers = append(c.layers, newLayer(id))
	return &Optimistic{c: c, id: id}
}

func (o *Optimistic) ID() string { return o.id }

// index must be called with the lock held. It returns -1 once the layer has
// been rolled back or committed.
func (o *Optimistic) index() int {
	for i, l := range o.c.layers {
		if l.id == o.id {
			return i
		}
	}
	return -1
}

func (o *Optimistic) Read(op graphql.Operation, vars graphql.Variables, out any) (bool, error) {
	o.c.mu.RLock()
	defer o.c.mu.RUnlock()
	depth := o.index() + 1
	if depth == 0 {
		depth = len(o.c.layers)
	}
	found, _, err := o.c.readAt(depth, resultKey(op, vars), out)
	return found, err
}

func (o *Optimistic) Write(op graphql.Operation, vars graphql.Variables, data any) error {
	tree, err := decode(data)
	if err != nil {
		return err
	}
	key := resultKey(op, vars)
	return o.apply(func(c *Cache, l *layer, depth int) error {
		c.writeResult(l, depth, key, tree)
		return nil
	})
}

func (o *Optimistic) ReadEntity(typename, id string, out any) (bool, error) {
	o.c.mu.RLock()
	defer o.c.mu.RUnlock()
	depth := o.index() + 1
	if depth == 0 {
		depth = len(o.c.layers)
	}
	return o.c.readEntityAt(depth, typename, id, out)
}

func (o *Optimistic) WriteEntity(typename, id string, fields any) error {
	tree, err := decode(fields)
	if err != nil {
		return err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return fmt.Errorf("entity %s:%s: fields must be an object", typename, id)
	}
	return o.apply(func(c *Cache, l *layer, depth int) error {
		c.writeEntity(l, depth, typename, id, obj)
		return nil
	})
}

// apply runs op against the layer now and records it for replay.
func (o *Optimistic) apply(op func(c *Cache, l *layer, depth int) error) error {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	i := o.index()
	if i < 0 {
		return fmt.Errorf("optimistic layer %s is no longer active", o.id)
	}
	l := o.c.layers[i]
	if err := op(o.c, l, i); err != nil {
		return err
	}
	l.ops = append(l.ops, func(target *layer) error { return op(o.c, target, o.index()) })
	return nil
}

// Rollback discards the layer; what was visible before it returns.
// Calling it on a settled layer is a no-op.
func (c *Cache) Rollback(o *Optimistic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLayer(o)
}

// Commit discards the layer and applies confirm to the confirmed store as one
// step, so readers never observe the gap between the two.
func (c *Cache) Commit(o *Optimistic, confirm func(Store) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLayer(o)
	if confirm == nil {
		return nil
	}
	err := confirm(&confirmed{c: c})
	c.replay(0)
	return err
}

func (c *Cache) removeLayer(o *Optimistic) {
	i := o.index()
	if i < 0 {
		return
	}
	c.layers = append(c.layers[:i], c.layers[i+1:]...)
	c.replay(i)
}

// replay rebuilds every layer from index from onwards against what is now
// below it.
func (c *Cache) replay(from int) {
	for i := from; i < len(c.layers); i++ {
		l := c.layers[i]
		l.entities = make(map[string]map[string]any)
		l.results = make(map[string]entry)
		ops := l.ops
		l.ops = nil
		for _, op := range ops {
			if err := op(l); err == nil {
				l.ops = append(l.ops, op)
			}
		}
	}
}

// confirmed is the Store handed to Commit callbacks. The cache lock is
// already held, so it talks to the base layer directly.
type confirmed struct {
	c *Cache
}

func (s *confirmed) Read(op graphql.Operation, vars graphql.Variables, out any) (bool, error) {
	found, _, err := s.c.readAt(0, resultKey(op, vars), out)
	return found, err
}

func (s *confirmed) Write(op graphql.Operation, vars graphql.Variables, data any) error {
	tree, err := decode(data)
	if err != nil {
		return err
	}
	s.c.writeResult(s.c.base, 0, resultKey(op, vars), tree)
	return nil
}

func (s *confirmed) ReadEntity(typename, id string, out any) (bool, error) {
	return s.c.readEntityAt(0, typename, id, out)
}

func (s *confirmed) WriteEntity(typename, id string, fields any) error {
	tree, err := decode(fields)
	if err != nil {
		return err
	}
	obj, ok := tree.(map[string]any)
	if !ok {
		return fmt.Errorf("entity %s:%s: fields must be an object", typename, id)
	}
	s.c.writeEntity(s.c.base, 0, typename, id, obj)
	return nil
}
