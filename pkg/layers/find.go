// Layer search.
package layers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/mesh-intelligence/lifter/pkg/types"
)

// Matcher decides whether the layer with the given id is a search hit.
type Matcher interface {
	Match(s *Session, id int64) (bool, error)
}

// MatchFunc adapts a function to Matcher.
type MatchFunc func(s *Session, id int64) (bool, error)

// Match calls f.
func (f MatchFunc) Match(s *Session, id int64) (bool, error) { return f(s, id) }

// MatchProps matches layers whose properties equal every value in the map.
// Layers lacking a property (failed precondition or kind check) do not
// match.
type MatchProps map[string]any

// Match implements Matcher.
func (m MatchProps) Match(s *Session, id int64) (bool, error) {
	for name, want := range m {
		got, err := s.get(ByID(id), name)
		if err != nil {
			if missingValue(err) {
				return false, nil
			}
			return false, err
		}
		if !sameValue(got, want) {
			return false, nil
		}
	}
	return true, nil
}

// ExprMatcher matches layers against a boolean expression over property
// names, for example `kind == "smartObject" && opacity < 50`.
type ExprMatcher struct {
	source  string
	program *vm.Program
	names   []string
}

// MatchExpr compiles source into a Matcher. Only the properties the
// expression mentions are fetched per layer; unavailable properties are nil.
func MatchExpr(source string) (*ExprMatcher, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: parse expression: %v", types.ErrInvalidArgument, err)
	}
	idents := &identCollector{seen: make(map[string]bool)}
	ast.Walk(&tree.Node, idents)

	program, err := expr.Compile(source, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: compile expression: %v", types.ErrInvalidArgument, err)
	}
	return &ExprMatcher{source: source, program: program, names: idents.names}, nil
}

// String returns the expression source.
func (m *ExprMatcher) String() string { return m.source }

// Match implements Matcher.
func (m *ExprMatcher) Match(s *Session, id int64) (bool, error) {
	env := make(map[string]any, len(m.names)+1)
	env["id"] = id
	for _, name := range m.names {
		if _, ok := s.registry.Lookup(name); !ok {
			continue
		}
		v, err := s.get(ByID(id), name)
		if err != nil {
			if missingValue(err) {
				env[name] = nil
				continue
			}
			return false, err
		}
		env[name] = plainValue(v)
	}
	out, err := expr.Run(m.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q on layer %d: %w", m.source, id, err)
	}
	hit, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression %q is not boolean", types.ErrInvalidArgument, m.source)
	}
	return hit, nil
}

type identCollector struct {
	seen  map[string]bool
	names []string
}

func (c *identCollector) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IdentifierNode); ok && !c.seen[n.Value] {
		c.seen[n.Value] = true
		c.names = append(c.names, n.Value)
	}
}

// FindAll returns the ids of every matching layer, bottom to top.
func (s *Session) FindAll(m Matcher) ([]int64, error) {
	var hits []int64
	err := s.ForEach(func(index int, id int64) error {
		ok, err := m.Match(s, id)
		if err != nil {
			return err
		}
		if ok {
			hits = append(hits, id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, fail("find all", Current, err)
	}
	return hits, nil
}

// FindFirst returns the lowest matching layer.
func (s *Session) FindFirst(m Matcher) (int64, bool, error) {
	return s.findOne(m, false)
}

// FindLast returns the highest matching layer.
func (s *Session) FindLast(m Matcher) (int64, bool, error) {
	return s.findOne(m, true)
}

func (s *Session) findOne(m Matcher, reverse bool) (int64, bool, error) {
	var (
		hit   int64
		found bool
	)
	err := s.ForEach(func(index int, id int64) error {
		ok, err := m.Match(s, id)
		if err != nil {
			return err
		}
		if ok {
			hit, found = id, true
			return Stop
		}
		return nil
	}, reverse)
	if err != nil {
		return 0, false, fail("find", Current, err)
	}
	return hit, found, nil
}

// FindAllByName returns the ids of layers whose name matches pattern.
func (s *Session) FindAllByName(pattern string) ([]int64, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fail("find by name", Current, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
	}
	return s.FindAll(MatchFunc(func(s *Session, id int64) (bool, error) {
		v, err := s.get(ByID(id), "name")
		if err != nil {
			return false, err
		}
		name, _ := v.(string)
		return re.MatchString(name), nil
	}))
}

func missingValue(err error) bool {
	return errors.Is(err, types.ErrPreconditionNotMet) || errors.Is(err, types.ErrKindMismatch)
}

// plainValue converts named string types such as LayerKind to string so
// expressions can compare them with literals.
func plainValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}

// sameValue compares property values, treating named strings as strings and
// all numbers as float64.
func sameValue(got, want any) bool {
	got, want = plainValue(got), plainValue(want)
	if gf, ok := number(got); ok {
		wf, ok := number(want)
		return ok && gf == wf
	}
	return reflect.DeepEqual(got, want)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
