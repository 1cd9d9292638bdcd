package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// link points at a normalized entity record.
type link struct {
	Key string
}

// selection records which fields a stored result picked out of each object,
// so that a read returns exactly what was written even when the entity record
// has accumulated more fields from other queries. Scalars have a nil selection.
type selection map[string]selection

type entry struct {
	value any
	sel   selection
}

// entityKey identifies objects that carry both __typename and id.
func entityKey(obj map[string]any) (string, bool) {
	typename, ok := obj["__typename"].(string)
	if !ok || typename == "" {
		return "", false
	}
	switch id := obj["id"].(type) {
	case string:
		if id == "" {
			return "", false
		}
		return typename + ":" + id, true
	case json.Number:
		return typename + ":" + id.String(), true
	default:
		return "", false
	}
}

// decode turns any value into the generic JSON tree the cache stores.
func decode(data any) (any, error) {
	var raw []byte
	switch v := data.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode cache value: %w", err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode cache value: %w", err)
	}
	return out, nil
}

// assign copies a generic tree into out through its JSON form.
func assign(tree any, out any) error {
	raw, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode cached value: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode cached value: %w", err)
	}
	return nil
}

// normalize replaces every identifiable object in v by a link, merging the
// object's fields into its record through merge.
func normalize(v any, merge func(key string, fields map[string]any)) (any, selection) {
	switch val := v.(type) {
	case map[string]any:
		fields := make(map[string]any, len(val))
		sel := make(selection, len(val))
		for _, name := range sortedKeys(val) {
			stored, sub := normalize(val[name], merge)
			fields[name] = stored
			sel[name] = sub
		}
		if key, ok := entityKey(val); ok {
			merge(key, fields)
			return link{Key: key}, sel
		}
		return fields, sel
	case []any:
		items := make([]any, len(val))
		var sel selection
		for i, item := range val {
			stored, sub := normalize(item, merge)
			items[i] = stored
			sel = unionSelection(sel, sub)
		}
		return items, sel
	default:
		return v, nil
	}
}

// denormalize rebuilds the tree a result selected. optimistic is set when any
// entity on the way was served from an optimistic layer.
func denormalize(v any, sel selection, lookup func(key string) (map[string]any, bool)) (out any, optimistic bool) {
	switch val := v.(type) {
	case link:
		record, fromLayer := lookup(val.Key)
		if record == nil {
			return nil, fromLayer
		}
		obj, opt := project(record, sel, lookup)
		return obj, opt || fromLayer
	case map[string]any:
		return project(val, sel, lookup)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			res, opt := denormalize(item, sel, lookup)
			items[i] = res
			optimistic = optimistic || opt
		}
		return items, optimistic
	default:
		return v, false
	}
}

func project(fields map[string]any, sel selection, lookup func(key string) (map[string]any, bool)) (map[string]any, bool) {
	out := make(map[string]any, len(sel))
	optimistic := false
	for name, sub := range sel {
		stored, ok := fields[name]
		if !ok {
			continue
		}
		res, opt := denormalize(stored, sub, lookup)
		out[name] = res
		optimistic = optimistic || opt
	}
	return out, optimistic
}

func mergeFields(dst, src map[string]any) {
	for name, value := range src {
		dst[name] = value
	}
}

func copyFields(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	mergeFields(dst, src)
	return dst
}

func unionSelection(a, b selection) selection {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := make(selection, len(a)+len(b))
	for name, sub := range a {
		out[name] = sub
	}
	for name, sub := range b {
		out[name] = unionSelection(out[name], sub)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
