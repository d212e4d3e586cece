package wikitext

// ParamMap is an insertion-ordered mapping from parameter key to Value.
// A nil *ParamMap is a valid, empty map for every read operation.
type ParamMap struct {
	keys   []string
	values map[string]Value
}

// NewParamMap returns an empty map.
func NewParamMap() *ParamMap {
	return &ParamMap{values: make(map[string]Value)}
}

// Params builds a map from alternating key/value pairs. It is a convenience
// for literals in code and tests.
func Params(pairs ...any) *ParamMap {
	p := NewParamMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		v, err := FromAny(pairs[i+1])
		if err != nil {
			continue
		}
		p.Set(key, v)
	}
	return p
}

// Set assigns v to key. An existing key keeps its original position.
func (p *ParamMap) Set(key string, v Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value stored under key.
func (p *ParamMap) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Delete removes key from the map.
func (p *ParamMap) Delete(key string) {
	if p == nil {
		return
	}
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys, including keys holding absent values.
func (p *ParamMap) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *ParamMap) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Range calls fn for each entry in insertion order until fn returns false.
func (p *ParamMap) Range(fn func(key string, v Value) bool) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Equal reports whether both maps hold the same entries in the same order.
func (p *ParamMap) Equal(o *ParamMap) bool {
	if p.Len() != o.Len() {
		return false
	}
	if p.Len() == 0 {
		return true
	}
	for i, k := range p.keys {
		if o.keys[i] != k || !p.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}
