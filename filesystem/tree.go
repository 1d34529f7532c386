// Package filesystem implements a minimal in-memory node tree whose full
// paths are expressed as hierarchical names.
//
// A [Tree] owns every node in one arena keyed by [NodeID]. Nodes refer to
// their parent, directories to their children and links to their target by
// ID only, so there are no reference cycles and a link tolerates its target
// disappearing. Structural mutations (add, remove, move, rename, delete) run
// under one tree-wide lock.
package filesystem

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/brettbedarf/namefs"
	"github.com/brettbedarf/namefs/config"
	"github.com/brettbedarf/namefs/contract"
	"github.com/brettbedarf/namefs/internal/util"
	"github.com/brettbedarf/namefs/names"
	"github.com/google/uuid"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/puzpuzpuz/xsync/v4"
)

type Tree struct {
	cfg      *config.Config
	root     *Directory               // Root of node tree
	nodes    *xsync.Map[NodeID, Node] // Arena of every live node
	lastIno  atomic.Uint64            // Last fuse Attr.Ino assigned
	dispatch contract.Dispatcher
	sources  namefs.SourceProvider // Builds file sources named by requests
	mu       sync.RWMutex
}

// TreeOption configures a Tree at construction
type TreeOption func(*Tree)

// WithDispatcher replaces the default logging dispatcher for every contract
// check made by the tree and the names it builds.
func WithDispatcher(d contract.Dispatcher) TreeOption {
	return func(t *Tree) {
		if d != nil {
			t.dispatch = d
		}
	}
}

// WithSourceProvider lets file requests name a byte source
func WithSourceProvider(p namefs.SourceProvider) TreeOption {
	return func(t *Tree) {
		t.sources = p
	}
}

// NewTree creates a tree holding only its root directory. A nil cfg means
// defaults.
func NewTree(cfg *config.Config, opts ...TreeOption) (*Tree, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tree config: %w", err)
	}
	t := &Tree{
		cfg:      cfg,
		nodes:    xsync.NewMap[NodeID, Node](),
		dispatch: contract.Logged(contract.Standard, util.GetLogger("contract")),
	}
	for _, opt := range opts {
		opt(t)
	}

	root := &Directory{children: xsync.NewMap[NodeID, struct{}]()}
	root.node = node{
		self:  root,
		id:    uuid.New(),
		tree:  t,
		inode: NewInode(newDefaultAttr(fuse.FUSE_ROOT_ID, DirAttr, DefaultDirPerms)),
	}
	t.root = root
	t.nodes.Store(root.id, root)
	t.lastIno.Store(fuse.FUSE_ROOT_ID)
	return t, nil
}

// Root returns the root directory; it has an empty base name and no parent.
func (t *Tree) Root() *Directory {
	return t.root
}

// Config returns the configuration the tree was built with
func (t *Tree) Config() *config.Config {
	return t.cfg
}

// Node returns the live node with the given ID
func (t *Tree) Node(id NodeID) (Node, bool) {
	return t.nodes.Load(id)
}

// Len returns the number of live nodes, root included
func (t *Tree) Len() int {
	return t.nodes.Size()
}

// initNodeLocked fills in n, registers self in the arena and links it into
// parent. Nothing is registered when a precondition fails.
func (t *Tree) initNodeLocked(n *node, self Node, bn string, parent *Directory, id NodeID, typ SysAttrType, perms uint32) error {
	if err := t.dispatch.Dispatch(contract.Precondition, parent != nil && parent.tree == t,
		contract.InvalidArgument("parent must be a directory of this tree")); err != nil {
		return err
	}
	if err := t.checkBaseName(contract.Precondition, bn); err != nil {
		return err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	if err := t.dispatch.Dispatch(contract.Precondition, !t.has(id),
		contract.InvalidArgument("node id %s is already in use", id)); err != nil {
		return err
	}
	*n = node{
		self:     self,
		id:       id,
		tree:     t,
		baseName: bn,
		inode:    NewInode(newDefaultAttr(t.lastIno.Add(1), typ, perms)),
	}
	t.nodes.Store(id, self)
	if err := parent.addLocked(self); err != nil {
		t.nodes.Delete(id)
		return err
	}
	return nil
}

func (t *Tree) has(id NodeID) bool {
	_, ok := t.nodes.Load(id)
	return ok
}

// rootName is the full name of the root: no components
func (t *Tree) rootName() (names.Name, error) {
	n, err := names.NewArrayName(nil, names.WithDelimiter(t.cfg.NameDelimiter), names.WithDispatcher(t.dispatch))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (t *Tree) fullNameLocked(n Node) (names.Name, error) {
	c := n.core()
	if c.isRoot() {
		return t.rootName()
	}
	parent := c.parentLocked()
	if err := t.dispatch.Dispatch(contract.Precondition, parent != nil,
		contract.InvalidArgument("detached node: %s", c.baseName)); err != nil {
		return nil, err
	}
	prefix, err := t.fullNameLocked(parent)
	if err != nil {
		return nil, err
	}
	bn, err := n.baseNameLocked()
	if err != nil {
		return nil, err
	}
	return prefix.Append(names.Escape(bn, prefix.Delimiter()))
}

// Delete removes n and its whole subtree from the tree. Files become
// DELETED; links pointing into the subtree lose their target.
func (t *Tree) Delete(n Node) error {
	logger := util.GetLogger("Tree.Delete")

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.dispatch.Dispatch(contract.Precondition, n != nil && n.Tree() == t,
		contract.InvalidArgument("node must belong to this tree")); err != nil {
		return err
	}
	c := n.core()
	if err := t.dispatch.Dispatch(contract.Precondition, !c.isRoot(),
		contract.InvalidArgument("the root cannot be deleted")); err != nil {
		return err
	}
	if parent := c.parentLocked(); parent != nil {
		if err := parent.removeLocked(n); err != nil {
			return err
		}
	}
	count := t.forgetLocked(n)
	logger.Debug().Stringer("id", c.id).Int("count", count).Msg("Deleted subtree")
	return nil
}

// forgetLocked drops n and everything below it from the arena
func (t *Tree) forgetLocked(n Node) int {
	count := 1
	switch v := n.(type) {
	case *Directory:
		for _, child := range v.childrenLocked() {
			count += t.forgetLocked(child)
			v.children.Delete(child.ID())
		}
	case *File:
		v.markDeleted()
	}
	t.nodes.Delete(n.ID())
	return count
}

// Resolve walks name from the root, matching each unescaped component
// against base names. Links met on intermediate components are followed.
func (t *Tree) Resolve(name names.Name) (Node, error) {
	if name == nil {
		return nil, contract.InvalidArgument("cannot resolve a nil name")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolveLocked(name.Components(), name.Delimiter())
}

// ResolvePath resolves a path joined by the configured path separator.
// Empty segments are ignored, so "" and "/" name the root.
func (t *Tree) ResolvePath(path string) (Node, error) {
	comps, err := t.splitPath(path)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolveLocked(comps, t.cfg.PathSeparator)
}

func (t *Tree) resolveLocked(comps []string, delim rune) (Node, error) {
	var cur Node = t.root
	for i, comp := range comps {
		dir, err := t.asDirectoryLocked(cur)
		if err != nil {
			return nil, err
		}
		bn := names.Unescape(comp, delim)
		matches := dir.lookupLocked(bn)
		switch len(matches) {
		case 0:
			return nil, contract.InvalidArgument("no node named %q at component %d", bn, i)
		case 1:
			cur = matches[0]
		default:
			return nil, contract.InvalidArgument("%d nodes named %q at component %d", len(matches), bn, i)
		}
	}
	return cur, nil
}

// asDirectoryLocked follows links until a directory is reached
func (t *Tree) asDirectoryLocked(n Node) (*Directory, error) {
	for {
		switch v := n.(type) {
		case *Directory:
			return v, nil
		case *Link:
			target, err := v.targetLocked()
			if err != nil {
				return nil, err
			}
			n = target
		default:
			return nil, contract.InvalidArgument("%s is not a directory", n.ID())
		}
	}
}

// splitPath splits a request path into escaped components, dropping empty
// segments
func (t *Tree) splitPath(path string) ([]string, error) {
	parsed, err := names.Parse(path, names.WithDelimiter(t.cfg.PathSeparator), names.WithDispatcher(t.dispatch))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	var comps []string
	for _, c := range parsed.Components() {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps, nil
}

// AddDirNode recursively adds all missing directories in the request's
// path and returns the leaf. It is equivalent to calling `mkdir -p` from a
// shell: existing directories are reused and an existing leaf is not an
// error. The request UUID, if any, goes to a newly created leaf. A rejected
// request leaves the tree unchanged.
func (t *Tree) AddDirNode(req *namefs.NodeRequest) (*Directory, error) {
	logger := util.GetLogger("Tree.AddDirNode")

	comps, err := t.splitPath(req.Path)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent, missing, err := t.planLocked(comps)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create directory")
		return nil, err
	}
	if len(missing) == 0 {
		return parent, nil
	}
	if err := t.checkFreeID(req.UUID); err != nil {
		return nil, err
	}
	perms := req.Perms
	if perms == 0 {
		perms = DefaultDirPerms
	}
	leaf, _, err := t.createDirsLocked(parent, missing, req.UUID, perms)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create directory")
		return nil, err
	}
	logger.Info().Str("path", req.Path).Msg(fmt.Sprintf("Created %d new dir(s)", len(missing)))
	return leaf, nil
}

// existingDirLocked returns the child directory named bn, following links
func (t *Tree) existingDirLocked(parent *Directory, bn string) (*Directory, bool, error) {
	matches := parent.lookupLocked(bn)
	switch len(matches) {
	case 0:
		return nil, false, nil
	case 1:
		d, err := t.asDirectoryLocked(matches[0])
		if err != nil {
			return nil, false, err
		}
		return d, true, nil
	default:
		return nil, false, contract.InvalidArgument("%d nodes named %q", len(matches), bn)
	}
}

// planLocked follows comps through existing directories. It returns the
// deepest one found and the unescaped base names that are still missing
// below it, each already checked, so creating them cannot fail on a name.
func (t *Tree) planLocked(comps []string) (*Directory, []string, error) {
	cur := t.root
	var missing []string
	for _, comp := range comps {
		bn := names.Unescape(comp, t.cfg.PathSeparator)
		if len(missing) == 0 {
			next, ok, err := t.existingDirLocked(cur, bn)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				cur = next
				continue
			}
		}
		if err := t.checkBaseName(contract.Precondition, bn); err != nil {
			return nil, nil, err
		}
		missing = append(missing, bn)
	}
	return cur, missing, nil
}

// checkFreeID rejects a requested id that already names a live node
func (t *Tree) checkFreeID(id NodeID) error {
	return t.dispatch.Dispatch(contract.Precondition, id == uuid.Nil || !t.has(id),
		contract.InvalidArgument("node id %s is already in use", id))
}

// createDirsLocked creates the chain of directories missing below parent.
// Only the last one gets leafID and leafPerms. It returns the last directory
// and the first one created; on failure everything it created is discarded.
func (t *Tree) createDirsLocked(parent *Directory, missing []string, leafID NodeID, leafPerms uint32) (*Directory, *Directory, error) {
	var first *Directory
	cur := parent
	for i, bn := range missing {
		id, perms := uuid.New(), uint32(DefaultDirPerms)
		if i == len(missing)-1 {
			if leafID != uuid.Nil {
				id = leafID
			}
			perms = leafPerms
		}
		d, err := t.newDirectoryLocked(bn, cur, id, perms)
		if err != nil {
			t.discardLocked(first)
			return nil, nil, err
		}
		if first == nil {
			first = d
		}
		cur = d
	}
	return cur, first, nil
}

// discardLocked undoes the creation of d and everything below it. A nil d
// is a no-op.
func (t *Tree) discardLocked(d *Directory) {
	if d == nil {
		return
	}
	if parent := d.parentLocked(); parent != nil {
		parent.children.Delete(d.id)
	}
	t.forgetLocked(d)
}

// parentForLocked validates a file or link path and creates its missing
// ancestors. It returns the parent directory, the leaf's base name and the
// first directory it created, which the caller discards if it then fails.
func (t *Tree) parentForLocked(path string, id NodeID) (*Directory, string, *Directory, error) {
	comps, err := t.splitPath(path)
	if err != nil {
		return nil, "", nil, err
	}
	if len(comps) == 0 {
		return nil, "", nil, contract.InvalidArgument("path %q names the root", path)
	}
	parent, missing, err := t.planLocked(comps[:len(comps)-1])
	if err != nil {
		return nil, "", nil, err
	}
	leaf := names.Unescape(comps[len(comps)-1], t.cfg.PathSeparator)
	if err := t.checkBaseName(contract.Precondition, leaf); err != nil {
		return nil, "", nil, err
	}
	if err := t.checkFreeID(id); err != nil {
		return nil, "", nil, err
	}
	if len(missing) == 0 {
		if len(parent.lookupLocked(leaf)) > 0 {
			return nil, "", nil, contract.InvalidArgument("node already exists at path %s", path)
		}
		return parent, leaf, nil, nil
	}
	parent, created, err := t.createDirsLocked(parent, missing, uuid.Nil, DefaultDirPerms)
	if err != nil {
		return nil, "", nil, err
	}
	return parent, leaf, created, nil
}

// AddFileNode adds a new file node, creating any missing directories in the
// path. It fails if a node with the same base name already exists there.
func (t *Tree) AddFileNode(req *namefs.NodeRequest) (*File, error) {
	logger := util.GetLogger("Tree.AddFileNode")

	var src namefs.ByteSource
	if len(req.Source) > 0 {
		if t.sources == nil {
			return nil, contract.InvalidArgument("file %s names a source but the tree has no source provider", req.Path)
		}
		var err error
		if src, err = t.sources.NewSource(req.Source); err != nil {
			logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create file source")
			return nil, fmt.Errorf("source for %s: %w", req.Path, err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent, bn, created, err := t.parentForLocked(req.Path, req.UUID)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create file")
		return nil, err
	}
	perms := req.Perms
	if perms == 0 {
		perms = DefaultFilePerms
	}
	f, err := t.newFileLocked(bn, parent, req.UUID, perms)
	if err != nil {
		t.discardLocked(created)
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create file")
		return nil, err
	}
	if src != nil {
		f.SetSource(src)
	}
	logger.Debug().Str("path", req.Path).Msg("Added new file node")
	return f, nil
}

// AddLinkNode adds a symbolic link at the request path pointing at the
// node found at req.Target, which must already exist.
func (t *Tree) AddLinkNode(req *namefs.NodeRequest) (*Link, error) {
	logger := util.GetLogger("Tree.AddLinkNode")

	targetComps, err := t.splitPath(req.Target)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	target, err := t.resolveLocked(targetComps, t.cfg.PathSeparator)
	if err != nil {
		logger.Error().Err(err).Str("target", req.Target).Msg("Failed to resolve link target")
		return nil, err
	}
	parent, bn, created, err := t.parentForLocked(req.Path, req.UUID)
	if err != nil {
		return nil, err
	}
	l, err := t.newLinkLocked(bn, parent, target, req.UUID)
	if err != nil {
		t.discardLocked(created)
		return nil, err
	}
	logger.Debug().Str("path", req.Path).Str("target", req.Target).Msg("Added new link node")
	return l, nil
}

// Apply creates the node a request describes
func (t *Tree) Apply(req *namefs.NodeRequest) (Node, error) {
	var (
		n   Node
		err error
	)
	switch req.Type {
	case namefs.DirNodeType:
		var d *Directory
		if d, err = t.AddDirNode(req); err == nil {
			n = d
		}
	case namefs.FileNodeType:
		var f *File
		if f, err = t.AddFileNode(req); err == nil {
			n = f
		}
	case namefs.SymlinkNodeType:
		var l *Link
		if l, err = t.AddLinkNode(req); err == nil {
			n = l
		}
	default:
		err = contract.InvalidArgument("unknown node type: %s", req.Type)
	}
	return n, err
}

// Walk visits every node reachable from the root in depth-first order,
// children sorted by stored name. Returning false from fn stops the walk.
// The nodes are collected first, so fn may call back into the tree.
func (t *Tree) Walk(fn func(n Node) bool) {
	t.mu.RLock()
	var order []Node
	t.collectLocked(t.root, &order)
	t.mu.RUnlock()

	for _, n := range order {
		if !fn(n) {
			return
		}
	}
}

func (t *Tree) collectLocked(n Node, order *[]Node) {
	*order = append(*order, n)
	if d, ok := n.(*Directory); ok {
		for _, child := range d.childrenLocked() {
			t.collectLocked(child, order)
		}
	}
}
