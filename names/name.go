// Package names implements hierarchical names: ordered component sequences
// joined by a single-character delimiter, where a component may contain the
// delimiter when it is escaped with a backslash.
//
// Two interchangeable representations exist. [ArrayName] keeps one escaped
// string per component; [StringName] keeps the whole escaped data string plus
// the component count. Both satisfy [Name] and compare equal whenever their
// components and delimiter match.
//
// All mutators are persistent: they return a new Name with its own backing
// storage and leave the receiver untouched.
package names

import (
	"fmt"
	"strings"

	"github.com/brettbedarf/namefs/contract"
	"github.com/cespare/xxhash"
)

// Name is the contract shared by every representation.
//
// Components cross this interface in escaped form: Component returns an
// escaped component and SetComponent, Insert and Append expect one.
type Name interface {
	fmt.Stringer

	Delimiter() rune
	NoComponents() int
	IsEmpty() bool

	// Component returns the escaped component at i.
	Component(i int) (string, error)
	// Components returns a copy of all escaped components.
	Components() []string

	// AsString joins the unescaped components with delim, or with the
	// name's own delimiter when delim is 0. Display only: the result is
	// not re-escaped.
	AsString(delim rune) string
	// AsDataString joins the escaped components with the name's own
	// delimiter. It is the lossless serialization.
	AsDataString() string

	IsEqual(other Name) bool
	HashCode() uint64
	Clone() Name

	SetComponent(i int, c string) (Name, error)
	Insert(i int, c string) (Name, error)
	Append(c string) (Name, error)
	Remove(i int) (Name, error)
	// Concat appends every component of other, translated from other's
	// delimiter to this name's delimiter. A component holding an escaped
	// escape character directly before this name's delimiter cannot be
	// translated, since Escape leaves that delimiter bare; Concat rejects it
	// with InvalidArgument.
	Concat(other Name) (Name, error)
}

// Option configures a Name at construction
type Option func(*options)

type options struct {
	delimiter  rune
	dispatcher contract.Dispatcher
}

// WithDelimiter sets the delimiter; it is fixed for the life of the Name.
func WithDelimiter(delim rune) Option {
	return func(o *options) {
		o.delimiter = delim
	}
}

// WithDispatcher routes contract checks through d instead of
// [contract.Standard].
func WithDispatcher(d contract.Dispatcher) Option {
	return func(o *options) {
		if d != nil {
			o.dispatcher = d
		}
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{delimiter: DefaultDelimiter, dispatcher: contract.Standard}
	for _, opt := range opts {
		opt(&o)
	}
	return o, ValidateDelimiter(o.delimiter)
}

// Parse splits an escaped data string into an [ArrayName]. It is the
// inverse of AsDataString for names built with the same delimiter.
func Parse(data string, opts ...Option) (*ArrayName, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	parts := Split(data, o.delimiter)
	for _, p := range parts {
		if !IsEscaped(p, o.delimiter) {
			return nil, contract.InvalidArgument("component %q is not properly escaped", p)
		}
	}
	return newArrayName(parts, o), nil
}

func asString(n Name, delim rune) string {
	own := n.Delimiter()
	if delim == 0 {
		delim = own
	}
	comps := n.Components()
	for i, c := range comps {
		comps[i] = Unescape(c, own)
	}
	return strings.Join(comps, string(delim))
}

func isEqual(n, other Name) bool {
	if other == nil {
		return false
	}
	if n.NoComponents() != other.NoComponents() || n.Delimiter() != other.Delimiter() {
		return false
	}
	a, b := n.Components(), other.Components()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hashCode(n Name) uint64 {
	return xxhash.Sum64String(n.AsDataString() + string(n.Delimiter()))
}

// translate re-escapes other's components for delimiter delim.
func translate(other Name, delim rune) []string {
	from := other.Delimiter()
	comps := other.Components()
	for i, c := range comps {
		comps[i] = Escape(Unescape(c, from), delim)
	}
	return comps
}

// checkComponent is the shared precondition of every mutator that takes an
// escaped component.
func checkComponent(d contract.Dispatcher, c string, delim rune) error {
	return d.Dispatch(contract.Precondition, IsEscaped(c, delim),
		contract.InvalidArgument("component %q is not properly escaped", c))
}

func checkIndex(d contract.Dispatcher, i, n int, inclusive bool) error {
	ok := i >= 0 && i < n
	if inclusive {
		ok = i >= 0 && i <= n
	}
	return d.Dispatch(contract.Precondition, ok, contract.IndexOutOfRange(i, n, inclusive))
}
