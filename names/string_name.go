package names

import (
	"github.com/brettbedarf/namefs/contract"
)

// StringName stores the escaped data string and tracks the component count
// separately, since "" can mean either zero components or one empty one.
// Built from a string it always has at least one component.
type StringName struct {
	delimiter    rune
	name         string
	noComponents int
	dispatch     contract.Dispatcher
}

var _ Name = (*StringName)(nil)

// NewStringName parses an escaped data string. Every component between
// unescaped delimiters must itself be properly escaped.
func NewStringName(s string, opts ...Option) (*StringName, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	parts := Split(s, o.delimiter)
	for _, p := range parts {
		if err := checkComponent(o.dispatcher, p, o.delimiter); err != nil {
			return nil, err
		}
	}
	n := &StringName{delimiter: o.delimiter, name: s, noComponents: len(parts), dispatch: o.dispatcher}
	if err := n.dispatch.Dispatch(contract.Postcondition, n.noComponents > 0,
		contract.MethodFailed("parsed name has no components")); err != nil {
		return nil, err
	}
	if err := n.checkInvariants(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *StringName) with(parts []string) *StringName {
	return &StringName{
		delimiter:    n.delimiter,
		name:         Join(parts, n.delimiter),
		noComponents: len(parts),
		dispatch:     n.dispatch,
	}
}

// parts splits the stored string honoring the tracked count.
func (n *StringName) parts() ([]string, error) {
	if n.noComponents == 0 {
		return []string{}, nil
	}
	parts := Split(n.name, n.delimiter)
	if err := n.dispatch.Dispatch(contract.ClassInvariant, len(parts) == n.noComponents,
		contract.InvalidState("component count %d out of sync with %q", n.noComponents, n.name)); err != nil {
		return nil, err
	}
	return parts, nil
}

func (n *StringName) Delimiter() rune {
	return n.delimiter
}

func (n *StringName) NoComponents() int {
	return n.noComponents
}

func (n *StringName) IsEmpty() bool {
	return n.noComponents == 0
}

func (n *StringName) Component(i int) (string, error) {
	if err := checkIndex(n.dispatch, i, n.noComponents, false); err != nil {
		return "", err
	}
	parts, err := n.parts()
	if err != nil {
		return "", err
	}
	c := parts[i]
	if err := n.dispatch.Dispatch(contract.Postcondition, IsEscaped(c, n.delimiter),
		contract.MethodFailed("component %d (%q) is not escaped", i, c)); err != nil {
		return "", err
	}
	return c, nil
}

// Components returns nil if the stored string is out of sync with the count;
// checkInvariants reports that condition.
func (n *StringName) Components() []string {
	parts, err := n.parts()
	if err != nil {
		return nil
	}
	return parts
}

func (n *StringName) AsString(delim rune) string {
	return asString(n, delim)
}

func (n *StringName) AsDataString() string {
	if n.noComponents == 0 {
		return ""
	}
	return n.name
}

func (n *StringName) String() string {
	return n.AsDataString()
}

func (n *StringName) IsEqual(other Name) bool {
	return isEqual(n, other)
}

func (n *StringName) HashCode() uint64 {
	return hashCode(n)
}

func (n *StringName) Clone() Name {
	c := *n
	return &c
}

func (n *StringName) SetComponent(i int, c string) (Name, error) {
	if err := checkIndex(n.dispatch, i, n.noComponents, false); err != nil {
		return nil, err
	}
	if err := checkComponent(n.dispatch, c, n.delimiter); err != nil {
		return nil, err
	}
	parts, err := n.parts()
	if err != nil {
		return nil, err
	}
	parts[i] = c
	return n.commit(n.with(parts), n.noComponents)
}

func (n *StringName) Insert(i int, c string) (Name, error) {
	if err := checkIndex(n.dispatch, i, n.noComponents, true); err != nil {
		return nil, err
	}
	if err := checkComponent(n.dispatch, c, n.delimiter); err != nil {
		return nil, err
	}
	parts, err := n.parts()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(parts)+1)
	out = append(out, parts[:i]...)
	out = append(out, c)
	out = append(out, parts[i:]...)
	return n.commit(n.with(out), n.noComponents+1)
}

func (n *StringName) Append(c string) (Name, error) {
	return n.Insert(n.noComponents, c)
}

func (n *StringName) Remove(i int) (Name, error) {
	if err := checkIndex(n.dispatch, i, n.noComponents, false); err != nil {
		return nil, err
	}
	parts, err := n.parts()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(parts)-1)
	out = append(out, parts[:i]...)
	out = append(out, parts[i+1:]...)
	return n.commit(n.with(out), n.noComponents-1)
}

func (n *StringName) Concat(other Name) (Name, error) {
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
	parts, err := n.parts()
	if err != nil {
		return nil, err
	}
	return n.commit(n.with(append(parts, extra...)), n.noComponents+other.NoComponents())
}

func (n *StringName) commit(result *StringName, want int) (Name, error) {
	if err := n.dispatch.Dispatch(contract.Postcondition, result.noComponents == want,
		contract.MethodFailed("expected %d components, got %d", want, result.noComponents)); err != nil {
		return nil, err
	}
	if err := result.checkInvariants(); err != nil {
		return nil, err
	}
	return result, nil
}

func (n *StringName) checkInvariants() error {
	if err := n.dispatch.Dispatch(contract.ClassInvariant, ValidateDelimiter(n.delimiter) == nil,
		contract.InvalidState("delimiter %q is invalid", n.delimiter)); err != nil {
		return err
	}
	if err := n.dispatch.Dispatch(contract.ClassInvariant, n.noComponents >= 0,
		contract.InvalidState("negative component count %d", n.noComponents)); err != nil {
		return err
	}
	if n.noComponents == 0 {
		return n.dispatch.Dispatch(contract.ClassInvariant, n.name == "",
			contract.InvalidState("empty name holds data %q", n.name))
	}
	_, err := n.parts()
	return err
}
