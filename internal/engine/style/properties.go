package style

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors returned by property operations.
var (
	ErrUnknownKey       = errors.New("unknown property key")
	ErrUnsupportedValue = errors.New("unsupported property value")
)

// Properties is a set of format properties.
// Values are limited to string, int, bool and float64.
// A nil set is empty; Set allocates it on first use.
type Properties map[Key]any

// Set stores a value for key.
func (p *Properties) Set(key Key, value any) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKey, key)
	}
	switch v := value.(type) {
	case string, bool, float64, int:
	case int64:
		value = int(v)
	case float32:
		value = float64(v)
	default:
		return fmt.Errorf("%w: %s=%T", ErrUnsupportedValue, key, value)
	}
	if *p == nil {
		*p = make(Properties)
	}
	(*p)[key] = value
	return nil
}

// put stores a value taken from another set, which Set has already checked.
func (p *Properties) put(key Key, value any) {
	if *p == nil {
		*p = make(Properties)
	}
	(*p)[key] = value
}

// WithChangeID returns a copy of p attributed to change id. A zero id
// removes the attribution.
func (p Properties) WithChangeID(id int) Properties {
	c := p.Without(KeyChangeID)
	if id != 0 {
		c.put(KeyChangeID, id)
	}
	return c
}

// Get returns the value stored for key.
func (p Properties) Get(key Key) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Has reports whether key is set.
func (p Properties) Has(key Key) bool {
	_, ok := p[key]
	return ok
}

// Int returns the int value of key, or 0.
func (p Properties) Int(key Key) int {
	switch v := p[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Bool returns the bool value of key, or false.
func (p Properties) Bool(key Key) bool {
	v, _ := p[key].(bool)
	return v
}

// Text returns the string value of key, or "".
func (p Properties) Text(key Key) string {
	v, _ := p[key].(string)
	return v
}

// Delete removes key from the set.
func (p Properties) Delete(key Key) {
	delete(p, key)
}

// Clone returns a copy of the set. A nil set clones to nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Merge returns a copy of p with every entry of other applied on top.
func (p Properties) Merge(other Properties) Properties {
	if len(other) == 0 {
		return p.Clone()
	}
	c := make(Properties, len(p)+len(other))
	for k, v := range p {
		c[k] = v
	}
	for k, v := range other {
		c[k] = v
	}
	return c
}

// Without returns a copy of p with the given keys removed.
func (p Properties) Without(keys ...Key) Properties {
	c := p.Clone()
	for _, k := range keys {
		delete(c, k)
	}
	if len(c) == 0 {
		return nil
	}
	return c
}

// Equal reports whether both sets hold the same entries.
// A nil set equals an empty one.
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no property is set.
func (p Properties) IsEmpty() bool {
	return len(p) == 0
}

// Names returns the set as a name → value map, suitable for serialization.
func (p Properties) Names() map[string]any {
	if len(p) == 0 {
		return nil
	}
	m := make(map[string]any, len(p))
	for k, v := range p {
		m[k.String()] = v
	}
	return m
}

// FromNames builds a set from a name → value map.
func FromNames(m map[string]any) (Properties, error) {
	if len(m) == 0 {
		return nil, nil
	}
	var p Properties
	for name, v := range m {
		k, ok := KeyByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, name)
		}
		if err := p.Set(k, v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Describe returns a stable, human-readable rendering such as "{bold=true size=12}".
func (p Properties) Describe() string {
	if len(p) == 0 {
		return "{}"
	}
	keys := make([]Key, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", k, p[k])
	}
	sb.WriteByte('}')
	return sb.String()
}
