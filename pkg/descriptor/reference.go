// Address references.
package descriptor

import (
	"fmt"
	"strings"
)

// Form selects how a reference element addresses its target.
type Form uint8

// Reference element forms.
const (
	FormClass Form = iota + 1
	FormEnumerated
	FormIdentifier
	FormIndex
	FormProperty
	FormName
)

// RefElement is one link of a reference chain, for example "the layer with
// id 12" or "the property opacity".
type RefElement struct {
	Class    string
	Form     Form
	EnumType string
	Value    string // enumerated value, property key or name
	ID       int64
	Index    int
}

// ClassElement addresses a class with no further qualification.
func ClassElement(class string) RefElement {
	return RefElement{Class: class, Form: FormClass}
}

// EnumElement addresses an entity by an enumerated token such as the
// current target.
func EnumElement(class, enumType, value string) RefElement {
	return RefElement{Class: class, Form: FormEnumerated, EnumType: enumType, Value: value}
}

// IDElement addresses an entity by stable identifier.
func IDElement(class string, id int64) RefElement {
	return RefElement{Class: class, Form: FormIdentifier, ID: id}
}

// IndexElement addresses an entity by remote position.
func IndexElement(class string, index int) RefElement {
	return RefElement{Class: class, Form: FormIndex, Index: index}
}

// PropertyElement addresses a single key of the element that follows it, or
// a special member of class when used on its own.
func PropertyElement(class, key string) RefElement {
	return RefElement{Class: class, Form: FormProperty, Value: key}
}

// NameElement addresses an entity by name.
func NameElement(class, name string) RefElement {
	return RefElement{Class: class, Form: FormName, Value: name}
}

func (e RefElement) String() string {
	switch e.Form {
	case FormClass:
		return e.Class
	case FormEnumerated:
		return fmt.Sprintf("%s(%s.%s)", e.Class, e.EnumType, e.Value)
	case FormIdentifier:
		return fmt.Sprintf("%s#%d", e.Class, e.ID)
	case FormIndex:
		return fmt.Sprintf("%s[%d]", e.Class, e.Index)
	case FormProperty:
		return fmt.Sprintf("%s.%s", e.Class, e.Value)
	case FormName:
		return fmt.Sprintf("%s(%q)", e.Class, e.Value)
	}
	return e.Class
}

// Reference is an ordered chain of elements, most specific first.
type Reference struct {
	Elements []RefElement
}

// NewReference builds a reference from elements in order.
func NewReference(elems ...RefElement) *Reference {
	out := make([]RefElement, len(elems))
	copy(out, elems)
	return &Reference{Elements: out}
}

// Append adds e to the end of the chain.
func (r *Reference) Append(e RefElement) {
	r.Elements = append(r.Elements, e)
}

// Find returns the first element addressing class.
func (r *Reference) Find(class string) (RefElement, bool) {
	if r == nil {
		return RefElement{}, false
	}
	for _, e := range r.Elements {
		if e.Class == class {
			return e, true
		}
	}
	return RefElement{}, false
}

// PropertyKey returns the key of a leading property element, if any.
func (r *Reference) PropertyKey(propertyClass string) (string, bool) {
	if r == nil || len(r.Elements) == 0 {
		return "", false
	}
	first := r.Elements[0]
	if first.Class == propertyClass && first.Form == FormProperty {
		return first.Value, true
	}
	return "", false
}

// Clone returns a copy of r.
func (r *Reference) Clone() *Reference {
	if r == nil {
		return nil
	}
	return NewReference(r.Elements...)
}

func (r *Reference) String() string {
	if r == nil {
		return "<nil>"
	}
	parts := make([]string, len(r.Elements))
	for i, e := range r.Elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " of ")
}
