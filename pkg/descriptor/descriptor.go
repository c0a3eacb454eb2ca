// Ordered descriptors.
package descriptor

import "fmt"

// Descriptor is an ordered map of wire keys to values, tagged with a class.
// The zero value is an empty descriptor with no class.
type Descriptor struct {
	Class  string
	keys   []string
	values map[string]Value
}

// New creates an empty descriptor of the given class.
func New(class string) *Descriptor {
	return &Descriptor{Class: class}
}

// Put sets key to v. A new key is appended after existing keys; an existing
// key keeps its position.
func (d *Descriptor) Put(key string, v Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// PutString sets a string value.
func (d *Descriptor) PutString(key, s string) { d.Put(key, String(s)) }

// PutBool sets a boolean value.
func (d *Descriptor) PutBool(key string, b bool) { d.Put(key, Bool(b)) }

// PutInt sets an integer value.
func (d *Descriptor) PutInt(key string, i int64) { d.Put(key, Int(i)) }

// PutDouble sets a double value.
func (d *Descriptor) PutDouble(key string, f float64) { d.Put(key, Double(f)) }

// PutUnitDouble sets a unit-double value.
func (d *Descriptor) PutUnitDouble(key, unit string, f float64) {
	d.Put(key, UnitDouble(unit, f))
}

// PutEnum sets an enumerated value.
func (d *Descriptor) PutEnum(key, enumType, value string) {
	d.Put(key, Enum(enumType, value))
}

// PutObject sets a nested descriptor.
func (d *Descriptor) PutObject(key string, o *Descriptor) { d.Put(key, Object(o)) }

// PutReference sets a reference value.
func (d *Descriptor) PutReference(key string, r *Reference) { d.Put(key, Ref(r)) }

// Get returns the value stored under key.
func (d *Descriptor) Get(key string) (Value, bool) {
	if d == nil || d.values == nil {
		return Value{}, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Descriptor) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Delete removes key if present.
func (d *Descriptor) Delete(key string) {
	if d == nil || d.values == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Descriptor) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of keys.
func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Clone returns a deep copy of d.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	out := New(d.Class)
	for _, k := range d.keys {
		out.Put(k, d.values[k].Clone())
	}
	return out
}

// lookup returns the value under key or ErrKeyNotFound.
func (d *Descriptor) lookup(key string) (Value, error) {
	v, ok := d.Get(key)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return v, nil
}

func wrongType(key string, want Kind, got Kind) error {
	return fmt.Errorf("%w: %s is %s, want %s", ErrWrongType, key, got, want)
}

// GetString returns the string value under key.
func (d *Descriptor) GetString(key string) (string, error) {
	v, err := d.lookup(key)
	if err != nil {
		return "", err
	}
	if v.Kind != KindString {
		return "", wrongType(key, KindString, v.Kind)
	}
	return v.Str, nil
}

// GetBool returns the boolean value under key.
func (d *Descriptor) GetBool(key string) (bool, error) {
	v, err := d.lookup(key)
	if err != nil {
		return false, err
	}
	if v.Kind != KindBoolean {
		return false, wrongType(key, KindBoolean, v.Kind)
	}
	return v.Bool, nil
}

// GetInt returns the integer value under key.
func (d *Descriptor) GetInt(key string) (int64, error) {
	v, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindInteger {
		return 0, wrongType(key, KindInteger, v.Kind)
	}
	return v.Int, nil
}

// GetNumber returns the numeric value under key, accepting integer, double
// and unit-double values.
func (d *Descriptor) GetNumber(key string) (float64, error) {
	v, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	f, ok := v.Number()
	if !ok {
		return 0, wrongType(key, KindDouble, v.Kind)
	}
	return f, nil
}

// GetEnum returns the enumeration type and value under key.
func (d *Descriptor) GetEnum(key string) (string, string, error) {
	v, err := d.lookup(key)
	if err != nil {
		return "", "", err
	}
	if v.Kind != KindEnumerated {
		return "", "", wrongType(key, KindEnumerated, v.Kind)
	}
	return v.EnumType, v.Str, nil
}

// GetObject returns the nested descriptor under key.
func (d *Descriptor) GetObject(key string) (*Descriptor, error) {
	v, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	if v.Kind != KindObject || v.Object == nil {
		return nil, wrongType(key, KindObject, v.Kind)
	}
	return v.Object, nil
}

// GetList returns the list under key.
func (d *Descriptor) GetList(key string) ([]Value, error) {
	v, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	if v.Kind != KindList {
		return nil, wrongType(key, KindList, v.Kind)
	}
	return v.List, nil
}

// GetReference returns the reference under key.
func (d *Descriptor) GetReference(key string) (*Reference, error) {
	v, err := d.lookup(key)
	if err != nil {
		return nil, err
	}
	if v.Kind != KindReference || v.Ref == nil {
		return nil, wrongType(key, KindReference, v.Kind)
	}
	return v.Ref, nil
}

// GetPath returns the path or alias under key.
func (d *Descriptor) GetPath(key string) (string, error) {
	v, err := d.lookup(key)
	if err != nil {
		return "", err
	}
	if v.Kind != KindPath && v.Kind != KindAlias {
		return "", wrongType(key, KindPath, v.Kind)
	}
	return v.Str, nil
}
