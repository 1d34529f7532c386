package names

import (
	"slices"

	"github.com/brettbedarf/namefs/contract"
)

// ArrayName stores one escaped string per component. The zero-component
// ArrayName is legal and stands for the empty (root) path.
type ArrayName struct {
	delimiter  rune
	components []string // escaped
	dispatch   contract.Dispatcher
}

var _ Name = (*ArrayName)(nil)

// NewArrayName builds a name from raw or escaped components. Each one is
// escaped for the delimiter; components that still contain a stray escape
// character are rejected.
func NewArrayName(components []string, opts ...Option) (*ArrayName, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	escaped := make([]string, len(components))
	for i, c := range components {
		e := Escape(c, o.delimiter)
		if err := checkComponent(o.dispatcher, e, o.delimiter); err != nil {
			return nil, err
		}
		escaped[i] = e
	}
	n := newArrayName(escaped, o)
	if err := n.checkInvariants(); err != nil {
		return nil, err
	}
	return n, nil
}

// newArrayName takes ownership of escaped
func newArrayName(escaped []string, o options) *ArrayName {
	return &ArrayName{delimiter: o.delimiter, components: escaped, dispatch: o.dispatcher}
}

func (n *ArrayName) with(components []string) *ArrayName {
	return &ArrayName{delimiter: n.delimiter, components: components, dispatch: n.dispatch}
}

func (n *ArrayName) Delimiter() rune {
	return n.delimiter
}

func (n *ArrayName) NoComponents() int {
	return len(n.components)
}

func (n *ArrayName) IsEmpty() bool {
	return len(n.components) == 0
}

func (n *ArrayName) Component(i int) (string, error) {
	if err := checkIndex(n.dispatch, i, len(n.components), false); err != nil {
		return "", err
	}
	c := n.components[i]
	if err := n.dispatch.Dispatch(contract.Postcondition, IsEscaped(c, n.delimiter),
		contract.MethodFailed("component %d (%q) is not escaped", i, c)); err != nil {
		return "", err
	}
	return c, nil
}

func (n *ArrayName) Components() []string {
	return slices.Clone(n.components)
}

func (n *ArrayName) AsString(delim rune) string {
	return asString(n, delim)
}

func (n *ArrayName) AsDataString() string {
	return Join(n.components, n.delimiter)
}

func (n *ArrayName) String() string {
	return n.AsDataString()
}

func (n *ArrayName) IsEqual(other Name) bool {
	return isEqual(n, other)
}

func (n *ArrayName) HashCode() uint64 {
	return hashCode(n)
}

func (n *ArrayName) Clone() Name {
	return n.with(slices.Clone(n.components))
}

func (n *ArrayName) SetComponent(i int, c string) (Name, error) {
	if err := checkIndex(n.dispatch, i, len(n.components), false); err != nil {
		return nil, err
	}
	if err := checkComponent(n.dispatch, c, n.delimiter); err != nil {
		return nil, err
	}
	comps := slices.Clone(n.components)
	comps[i] = c
	return n.commit(n.with(comps), len(n.components))
}

func (n *ArrayName) Insert(i int, c string) (Name, error) {
	if err := checkIndex(n.dispatch, i, len(n.components), true); err != nil {
		return nil, err
	}
	if err := checkComponent(n.dispatch, c, n.delimiter); err != nil {
		return nil, err
	}
	comps := make([]string, 0, len(n.components)+1)
	comps = append(comps, n.components[:i]...)
	comps = append(comps, c)
	comps = append(comps, n.components[i:]...)
	return n.commit(n.with(comps), len(n.components)+1)
}

func (n *ArrayName) Append(c string) (Name, error) {
	return n.Insert(len(n.components), c)
}

func (n *ArrayName) Remove(i int) (Name, error) {
	if err := checkIndex(n.dispatch, i, len(n.components), false); err != nil {
		return nil, err
	}
	comps := make([]string, 0, len(n.components)-1)
	comps = append(comps, n.components[:i]...)
	comps = append(comps, n.components[i+1:]...)
	return n.commit(n.with(comps), len(n.components)-1)
}

func (n *ArrayName) Concat(other Name) (Name, error) {
	if err := n.dispatch.Dispatch(contract.Precondition, other != nil,
		contract.InvalidArgument("cannot concat a nil name")); err != nil {
		return nil, err
	}
	extra := translate(other, n.delimiter)
	for _, c := range extra {
		if err := checkComponent(n.dispatch, c, n.delimiter); err != nil {
			return nil, err
		}
	}
	comps := make([]string, 0, len(n.components)+len(extra))
	comps = append(comps, n.components...)
	comps = append(comps, extra...)
	return n.commit(n.with(comps), len(n.components)+other.NoComponents())
}

// commit checks the postcondition on the component count and the class
// invariants of a freshly built result.
func (n *ArrayName) commit(result *ArrayName, want int) (Name, error) {
	if err := n.dispatch.Dispatch(contract.Postcondition, result.NoComponents() == want,
		contract.MethodFailed("expected %d components, got %d", want, result.NoComponents())); err != nil {
		return nil, err
	}
	if err := result.checkInvariants(); err != nil {
		return nil, err
	}
	return result, nil
}

func (n *ArrayName) checkInvariants() error {
	if err := n.dispatch.Dispatch(contract.ClassInvariant, ValidateDelimiter(n.delimiter) == nil,
		contract.InvalidState("delimiter %q is invalid", n.delimiter)); err != nil {
		return err
	}
	for i, c := range n.components {
		if err := n.dispatch.Dispatch(contract.ClassInvariant, IsEscaped(c, n.delimiter),
			contract.InvalidState("component %d (%q) is not escaped", i, c)); err != nil {
			return err
		}
	}
	return nil
}
