package filesystem

import (
	"github.com/brettbedarf/namefs/contract"
	"github.com/brettbedarf/namefs/internal/util"
	"github.com/google/uuid"
)

// Link is a symbolic node. Its base name is its target's base name, and
// renaming it renames the target. The target is held by ID, so a link
// outlives a deleted target and then reports TargetNotSet.
type Link struct {
	node
	targetID NodeID // uuid.Nil when unset
}

var _ Node = (*Link)(nil)

// NewLink creates a link to target and links it into parent. target may be
// nil. bn is only the stored name; lookups use the target's name.
func NewLink(bn string, parent *Directory, target Node) (*Link, error) {
	if parent == nil {
		return nil, contract.InvalidArgument("parent directory must not be nil")
	}
	t := parent.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.newLinkLocked(bn, parent, target, uuid.New())
}

func (t *Tree) newLinkLocked(bn string, parent *Directory, target Node, id NodeID) (*Link, error) {
	if target != nil {
		if err := t.dispatch.Dispatch(contract.Precondition, target.Tree() == t && t.has(target.ID()),
			contract.InvalidArgument("link target %s is not a live node of this tree", target.ID())); err != nil {
			return nil, err
		}
	}
	l := &Link{}
	if err := t.initNodeLocked(&l.node, l, bn, parent, id, SymlinkAttr, DefaultLinkPerms); err != nil {
		return nil, err
	}
	if target != nil {
		l.targetID = target.ID()
	}
	return l, nil
}

// LinkName returns the name the link was created under
func (l *Link) LinkName() string {
	l.tree.mu.RLock()
	defer l.tree.mu.RUnlock()
	return l.baseName
}

// Target returns the node the link points at
func (l *Link) Target() (Node, error) {
	l.tree.mu.RLock()
	defer l.tree.mu.RUnlock()
	return l.targetLocked()
}

func (l *Link) targetLocked() (Node, error) {
	if l.targetID == uuid.Nil {
		return nil, contract.TargetNotSet("link %s has no target", l.id)
	}
	target, ok := l.tree.nodes.Load(l.targetID)
	if !ok {
		return nil, contract.TargetNotSet("target %s of link %s no longer exists", l.targetID, l.id)
	}
	return target, nil
}

// SetTarget points the link at target; nil clears it. A target whose own
// link chain leads back to l is rejected.
func (l *Link) SetTarget(target Node) error {
	logger := util.GetLogger("Link.SetTarget")
	t := l.tree

	t.mu.Lock()
	defer t.mu.Unlock()

	if target == nil {
		l.targetID = uuid.Nil
		return nil
	}
	if err := t.dispatch.Dispatch(contract.Precondition, target.Tree() == t && t.has(target.ID()),
		contract.InvalidArgument("link target %s is not a live node of this tree", target.ID())); err != nil {
		return err
	}
	if err := t.dispatch.Dispatch(contract.Precondition, !l.reachesLocked(target),
		contract.InvalidArgument("linking %s to %s would form a cycle", l.id, target.ID())); err != nil {
		return err
	}
	l.targetID = target.ID()
	logger.Debug().Stringer("id", l.id).Stringer("target", l.targetID).Msg("Set link target")
	return t.dispatch.Dispatch(contract.Postcondition, l.targetID == target.ID(),
		contract.MethodFailed("link %s target was not set", l.id))
}

// reachesLocked reports whether following links from n arrives at l
func (l *Link) reachesLocked(n Node) bool {
	seen := make(map[NodeID]struct{})
	for n != nil {
		if n.ID() == l.id {
			return true
		}
		next, ok := n.(*Link)
		if !ok {
			return false
		}
		if _, dup := seen[next.id]; dup {
			return false
		}
		seen[next.id] = struct{}{}
		n, _ = next.targetLocked()
	}
	return false
}

func (l *Link) baseNameLocked() (string, error) {
	target, err := l.targetLocked()
	if err != nil {
		return "", err
	}
	return target.baseNameLocked()
}

func (l *Link) renameLocked(bn string) error {
	target, err := l.targetLocked()
	if err != nil {
		return err
	}
	return target.renameLocked(bn)
}

// findLocked treats a link without a target as non-matching
func (l *Link) findLocked(bn string, set NodeSet) error {
	if err := l.checkInvariantsLocked(); err != nil {
		return err
	}
	name, err := l.baseNameLocked()
	if err != nil {
		if contract.KindOf(err) == contract.KindTargetNotSet {
			return nil
		}
		return err
	}
	if name == bn {
		set[l.id] = l
	}
	return nil
}
