package filesystem

import (
	"strings"

	"github.com/brettbedarf/namefs/contract"
	"github.com/brettbedarf/namefs/internal/util"
	"github.com/brettbedarf/namefs/names"
	"github.com/google/uuid"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// NodeID identifies a node within its tree's arena
type NodeID = uuid.UUID

// NodeSet is a set of nodes keyed by ID
type NodeSet map[NodeID]Node

// Has reports whether n is in the set
func (s NodeSet) Has(n Node) bool {
	if n == nil {
		return false
	}
	_, ok := s[n.ID()]
	return ok
}

// Node is implemented by [*Directory], [*File] and [*Link].
type Node interface {
	ID() NodeID
	Tree() *Tree
	Attr() fuse.Attr

	// BaseName returns the local name; links report their target's name.
	BaseName() (string, error)
	// Rename changes the local name; links rename their target.
	Rename(bn string) error
	// Parent returns the owning directory, or nil for the root and for
	// detached nodes.
	Parent() *Directory
	// FullName builds the node's Name from the root down. The root
	// contributes no component.
	FullName() (names.Name, error)
	// Move detaches the node from its parent and attaches it to to as
	// one step; on failure the node stays where it was.
	Move(to *Directory) error
	// FindNodes returns every node at or below this one whose base name
	// is bn.
	FindNodes(bn string) (NodeSet, error)

	core() *node
	baseNameLocked() (string, error)
	renameLocked(bn string) error
	findLocked(bn string, set NodeSet) error
}

// node carries the state shared by every node type. self points at the
// embedding value so shared code dispatches to the concrete type.
type node struct {
	self     Node
	id       NodeID
	tree     *Tree
	baseName string
	parentID NodeID // uuid.Nil for the root and detached nodes
	inode    *Inode
}

func (n *node) core() *node {
	return n
}

func (n *node) ID() NodeID {
	return n.id
}

func (n *node) Tree() *Tree {
	return n.tree
}

func (n *node) Attr() fuse.Attr {
	return n.inode.CopyAttr()
}

func (n *node) isRoot() bool {
	return n.tree.root != nil && n.id == n.tree.root.id
}

func (n *node) BaseName() (string, error) {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.self.baseNameLocked()
}

func (n *node) baseNameLocked() (string, error) {
	return n.baseName, nil
}

func (n *node) Rename(bn string) error {
	logger := util.GetLogger("Node.Rename")

	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if err := n.self.renameLocked(bn); err != nil {
		return err
	}
	logger.Debug().Stringer("id", n.id).Str("name", bn).Msg("Renamed node")
	return nil
}

func (n *node) renameLocked(bn string) error {
	if err := n.tree.dispatch.Dispatch(contract.Precondition, !n.isRoot(),
		contract.InvalidArgument("the root cannot be renamed")); err != nil {
		return err
	}
	if err := n.tree.checkBaseName(contract.Precondition, bn); err != nil {
		return err
	}
	n.baseName = bn
	n.inode.touch()
	return n.checkInvariantsLocked()
}

func (n *node) Parent() *Directory {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.parentLocked()
}

func (n *node) parentLocked() *Directory {
	if n.parentID == uuid.Nil {
		return nil
	}
	p, ok := n.tree.nodes.Load(n.parentID)
	if !ok {
		return nil
	}
	d, _ := p.(*Directory)
	return d
}

func (n *node) FullName() (names.Name, error) {
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.tree.fullNameLocked(n.self)
}

func (n *node) Move(to *Directory) error {
	logger := util.GetLogger("Node.Move")
	t := n.tree

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.dispatch.Dispatch(contract.Precondition, to != nil,
		contract.InvalidArgument("cannot move into a nil directory")); err != nil {
		return err
	}
	from := n.parentLocked()
	if err := t.dispatch.Dispatch(contract.Precondition, from != nil,
		contract.InvalidArgument("node %s is the root or detached", n.id)); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	// validate against the destination before touching the source
	if err := to.admitLocked(n.self); err != nil {
		return err
	}
	if err := from.removeLocked(n.self); err != nil {
		return err
	}
	if err := to.addLocked(n.self); err != nil {
		if rerr := from.addLocked(n.self); rerr != nil {
			logger.Error().Err(rerr).Stringer("id", n.id).Msg("Failed to restore node after move")
			return contract.Wrap("move rollback failed", rerr)
		}
		return err
	}
	n.inode.touch()
	logger.Debug().Stringer("id", n.id).Stringer("from", from.id).Stringer("to", to.id).Msg("Moved node")
	return n.checkInvariantsLocked()
}

func (n *node) FindNodes(bn string) (NodeSet, error) {
	return n.tree.findNodes(n.self, bn)
}

func (n *node) findLocked(bn string, set NodeSet) error {
	if err := n.checkInvariantsLocked(); err != nil {
		return err
	}
	name, err := n.self.baseNameLocked()
	if err != nil {
		return err
	}
	if name == bn {
		set[n.id] = n.self
	}
	return nil
}

// checkInvariantsLocked verifies the stored base name and that the parent,
// if any, still lists this node.
func (n *node) checkInvariantsLocked() error {
	if n.isRoot() {
		return nil
	}
	if err := n.tree.checkBaseName(contract.ClassInvariant, n.baseName); err != nil {
		return err
	}
	if n.parentID == uuid.Nil {
		return nil
	}
	p := n.parentLocked()
	return n.tree.dispatch.Dispatch(contract.ClassInvariant, p != nil && p.hasLocked(n.id),
		contract.InvalidState("parent %s does not contain node %s", n.parentID, n.id))
}

// checkBaseName validates bn at the given severity: non-empty, without the
// path separator or the escape character.
func (t *Tree) checkBaseName(sev contract.Severity, bn string) error {
	newErr := contract.InvalidArgument
	if sev != contract.Precondition {
		newErr = contract.InvalidState
	}
	if err := t.dispatch.Dispatch(sev, bn != "", newErr("base name must not be empty")); err != nil {
		return err
	}
	if err := t.dispatch.Dispatch(sev, !strings.ContainsRune(bn, t.cfg.PathSeparator),
		newErr("base name %q must not contain %q", bn, t.cfg.PathSeparator)); err != nil {
		return err
	}
	return t.dispatch.Dispatch(sev, !strings.ContainsRune(bn, names.EscapeCharacter),
		newErr("base name %q must not contain %q", bn, names.EscapeCharacter))
}
