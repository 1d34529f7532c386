package filesystem

import (
	"slices"
	"strings"

	"github.com/brettbedarf/namefs/contract"
	"github.com/brettbedarf/namefs/internal/util"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
)

// Directory is a node owning a set of child nodes
type Directory struct {
	node
	children *xsync.Map[NodeID, struct{}] // child IDs; the nodes live in the tree's arena
}

var _ Node = (*Directory)(nil)

// NewDirectory creates a directory and links it into parent.
func NewDirectory(bn string, parent *Directory) (*Directory, error) {
	if parent == nil {
		return nil, contract.InvalidArgument("parent directory must not be nil")
	}
	t := parent.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.newDirectoryLocked(bn, parent, uuid.New(), DefaultDirPerms)
}

func (t *Tree) newDirectoryLocked(bn string, parent *Directory, id NodeID, perms uint32) (*Directory, error) {
	d := &Directory{children: xsync.NewMap[NodeID, struct{}]()}
	if err := t.initNodeLocked(&d.node, d, bn, parent, id, DirAttr, perms); err != nil {
		return nil, err
	}
	return d, nil
}

// Add attaches a detached node to this directory.
func (d *Directory) Add(n Node) error {
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	return d.addLocked(n)
}

// admitLocked checks every precondition of adding n except that n must be
// detached, so Move can validate before detaching.
func (d *Directory) admitLocked(n Node) error {
	t := d.tree
	if err := t.dispatch.Dispatch(contract.Precondition, n != nil,
		contract.InvalidArgument("cannot add a nil node")); err != nil {
		return err
	}
	if err := t.dispatch.Dispatch(contract.Precondition, !d.hasLocked(n.ID()),
		contract.InvalidArgument("node %s is already a member of %s", n.ID(), d.id)); err != nil {
		return err
	}
	if err := t.dispatch.Dispatch(contract.Precondition, n.Tree() == t,
		contract.InvalidArgument("node %s belongs to another tree", n.ID())); err != nil {
		return err
	}
	return t.dispatch.Dispatch(contract.Precondition, !d.isWithinLocked(n.ID()),
		contract.InvalidArgument("cannot place node %s inside its own subtree", n.ID()))
}

func (d *Directory) addLocked(n Node) error {
	if err := d.admitLocked(n); err != nil {
		return err
	}
	c := n.core()
	if err := d.tree.dispatch.Dispatch(contract.Precondition, c.parentID == uuid.Nil && !c.isRoot(),
		contract.InvalidArgument("node %s already has a parent", c.id)); err != nil {
		return err
	}
	d.children.Store(c.id, struct{}{})
	c.parentID = d.id
	return d.tree.dispatch.Dispatch(contract.Postcondition, d.hasLocked(c.id),
		contract.MethodFailed("node %s was not added to %s", c.id, d.id))
}

// Remove detaches a member node; it stays in the arena without a parent.
func (d *Directory) Remove(n Node) error {
	d.tree.mu.Lock()
	defer d.tree.mu.Unlock()
	return d.removeLocked(n)
}

func (d *Directory) removeLocked(n Node) error {
	t := d.tree
	if err := t.dispatch.Dispatch(contract.Precondition, n != nil,
		contract.InvalidArgument("cannot remove a nil node")); err != nil {
		return err
	}
	if err := t.dispatch.Dispatch(contract.Precondition, d.hasLocked(n.ID()),
		contract.InvalidArgument("node %s is not a member of %s", n.ID(), d.id)); err != nil {
		return err
	}
	d.children.Delete(n.ID())
	n.core().parentID = uuid.Nil
	return t.dispatch.Dispatch(contract.Postcondition, !d.hasLocked(n.ID()),
		contract.MethodFailed("node %s was not removed from %s", n.ID(), d.id))
}

// Has reports whether n is a direct member
func (d *Directory) Has(n Node) bool {
	if n == nil {
		return false
	}
	d.tree.mu.RLock()
	defer d.tree.mu.RUnlock()
	return d.hasLocked(n.ID())
}

func (d *Directory) hasLocked(id NodeID) bool {
	_, ok := d.children.Load(id)
	return ok
}

// isWithinLocked reports whether this directory is id or lies below it
func (d *Directory) isWithinLocked(id NodeID) bool {
	for cur := d; cur != nil; cur = cur.parentLocked() {
		if cur.id == id {
			return true
		}
	}
	return false
}

// Children returns the direct members ordered by their stored name
func (d *Directory) Children() []Node {
	d.tree.mu.RLock()
	defer d.tree.mu.RUnlock()
	return d.childrenLocked()
}

func (d *Directory) childrenLocked() []Node {
	out := make([]Node, 0, d.children.Size())
	d.children.Range(func(id NodeID, _ struct{}) bool {
		if n, ok := d.tree.nodes.Load(id); ok {
			out = append(out, n)
		}
		return true
	})
	slices.SortFunc(out, func(a, b Node) int {
		if c := strings.Compare(a.core().baseName, b.core().baseName); c != 0 {
			return c
		}
		return strings.Compare(a.ID().String(), b.ID().String())
	})
	return out
}

// Lookup returns the direct members whose base name is bn. Links without a
// target never match.
func (d *Directory) Lookup(bn string) []Node {
	d.tree.mu.RLock()
	defer d.tree.mu.RUnlock()
	return d.lookupLocked(bn)
}

func (d *Directory) lookupLocked(bn string) []Node {
	var out []Node
	for _, child := range d.childrenLocked() {
		if name, err := child.baseNameLocked(); err == nil && name == bn {
			out = append(out, child)
		}
	}
	return out
}

// FindNodes searches the subtree rooted here, including d itself. Broken
// invariants met on the way are reported as a ServiceFailure.
func (d *Directory) FindNodes(bn string) (NodeSet, error) {
	return d.tree.findNodes(d, bn)
}

func (d *Directory) findLocked(bn string, set NodeSet) error {
	if err := d.node.findLocked(bn, set); err != nil {
		return err
	}
	for _, child := range d.childrenLocked() {
		if err := child.findLocked(bn, set); err != nil {
			return err
		}
	}
	return d.checkInvariantsLocked()
}

func (t *Tree) findNodes(from Node, bn string) (NodeSet, error) {
	logger := util.GetLogger("FindNodes")

	if err := t.dispatch.Dispatch(contract.Precondition, bn != "",
		contract.InvalidArgument("base name must not be empty")); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	set := make(NodeSet)
	if err := from.findLocked(bn, set); err != nil {
		if contract.IsBug(err) {
			logger.Error().Err(err).Str("name", bn).Msg("Search hit a broken invariant")
			return nil, contract.Wrap("findNodes failed", err)
		}
		return nil, err
	}
	logger.Trace().Str("name", bn).Int("found", len(set)).Msg("Search complete")
	return set, nil
}
