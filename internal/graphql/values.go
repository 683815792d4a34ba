package graphql

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Values is an insertion-ordered string-keyed map. The zero value is empty and
// ready to use.
type Values struct {
	m *orderedmap.OrderedMap[string, any]
}

func (v *Values) init() {
	if v.m == nil {
		v.m = orderedmap.New[string, any]()
	}
}

// Set stores value under key. Re-setting a key keeps its original position.
func (v *Values) Set(key string, value any) {
	v.init()
	v.m.Set(key, value)
}

// Merge adds every entry of m. Plain maps are unordered, so keys are merged
// in sorted order to keep the result deterministic.
func (v *Values) Merge(m map[string]any) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Set(k, m[k])
	}
}

// Get returns the value for key.
func (v Values) Get(key string) (any, bool) {
	if v.m == nil {
		return nil, false
	}
	return v.m.Get(key)
}

// Len returns the number of entries.
func (v Values) Len() int {
	if v.m == nil {
		return 0
	}
	return v.m.Len()
}

// Keys returns the keys in insertion order.
func (v Values) Keys() []string {
	if v.m == nil {
		return nil
	}
	keys := make([]string, 0, v.m.Len())
	for p := v.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Map returns a plain map copy of the entries.
func (v Values) Map() map[string]any {
	out := make(map[string]any, v.Len())
	if v.m == nil {
		return out
	}
	for p := v.m.Oldest(); p != nil; p = p.Next() {
		out[p.Key] = p.Value
	}
	return out
}

// Clone returns an independent copy. Values themselves are not deep-copied.
func (v Values) Clone() Values {
	var c Values
	if v.m == nil {
		return c
	}
	for p := v.m.Oldest(); p != nil; p = p.Next() {
		c.Set(p.Key, p.Value)
	}
	return c
}

// MarshalJSON writes the entries in insertion order.
func (v Values) MarshalJSON() ([]byte, error) {
	if v.m == nil {
		return []byte("{}"), nil
	}
	return v.m.MarshalJSON()
}

// UnmarshalJSON reads an object keeping the order of its keys.
func (v *Values) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		v.m = nil
		return nil
	}
	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(b); err != nil {
		return err
	}
	v.m = m
	return nil
}
