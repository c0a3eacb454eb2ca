// JSON rendering of descriptors and references.
package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON renders d as a JSON object with keys in insertion order. The
// class is emitted under "_obj".
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKey := func(k string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		return nil
	}
	if d.Class != "" {
		if err := writeKey("_obj"); err != nil {
			return nil, err
		}
		cb, _ := json.Marshal(d.Class)
		buf.Write(cb)
	}
	for _, k := range d.keys {
		if err := writeKey(k); err != nil {
			return nil, err
		}
		vb, err := d.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders v. Scalars render as JSON scalars; typed values use
// small tagged objects such as {"_unit":"pixelsUnit","_value":4}.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindInteger:
		return json.Marshal(v.Int)
	case KindDouble:
		return json.Marshal(v.Float)
	case KindUnitDouble:
		return json.Marshal(struct {
			Unit  string  `json:"_unit"`
			Value float64 `json:"_value"`
		}{v.Unit, v.Float})
	case KindEnumerated:
		return json.Marshal(struct {
			Enum  string `json:"_enum"`
			Value string `json:"_value"`
		}{v.EnumType, v.Str})
	case KindObject:
		return v.Object.MarshalJSON()
	case KindList:
		items := make([]json.RawMessage, len(v.List))
		for i, item := range v.List {
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			items[i] = b
		}
		return json.Marshal(items)
	case KindReference:
		return v.Ref.MarshalJSON()
	case KindPath:
		return json.Marshal(struct {
			Path string `json:"_path"`
		}{v.Str})
	case KindAlias:
		return json.Marshal(struct {
			Path string `json:"_path"`
			Kind string `json:"_kind"`
		}{v.Str, "alias"})
	case KindClass:
		return json.Marshal(struct {
			Class string `json:"_class"`
		}{v.Str})
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownWireType, v.Kind)
}

type jsonElement struct {
	Ref      string `json:"_ref"`
	Enum     string `json:"_enum,omitempty"`
	Value    string `json:"_value,omitempty"`
	ID       *int64 `json:"_id,omitempty"`
	Index    *int   `json:"_index,omitempty"`
	Property string `json:"_property,omitempty"`
	Name     string `json:"_name,omitempty"`
}

// MarshalJSON renders r as an array of element objects.
func (r *Reference) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	elems := make([]jsonElement, len(r.Elements))
	for i, e := range r.Elements {
		je := jsonElement{Ref: e.Class}
		switch e.Form {
		case FormEnumerated:
			je.Enum, je.Value = e.EnumType, e.Value
		case FormIdentifier:
			id := e.ID
			je.ID = &id
		case FormIndex:
			idx := e.Index
			je.Index = &idx
		case FormProperty:
			je.Property = e.Value
		case FormName:
			je.Name = e.Value
		}
		elems[i] = je
	}
	return json.Marshal(elems)
}
