package filesystem

import (
	"errors"
	"io"
	"sync"

	"github.com/brettbedarf/namefs"
	"github.com/brettbedarf/namefs/contract"
	"github.com/brettbedarf/namefs/internal/util"
	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
)

// FileState is the lifecycle state of a File
type FileState int

const (
	FileClosed FileState = iota
	FileOpen
	FileDeleted
)

func (s FileState) String() string {
	switch s {
	case FileClosed:
		return "CLOSED"
	case FileOpen:
		return "OPEN"
	case FileDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// File is a leaf node backed by a byte source. It starts CLOSED.
type File struct {
	node
	mu     sync.Mutex // guards state and source
	state  FileState
	source namefs.ByteSource
}

var _ Node = (*File)(nil)

// NewFile creates a closed file reading from [namefs.ZeroSource] and links it
// into parent.
func NewFile(bn string, parent *Directory) (*File, error) {
	if parent == nil {
		return nil, contract.InvalidArgument("parent directory must not be nil")
	}
	t := parent.tree
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.newFileLocked(bn, parent, uuid.New(), DefaultFilePerms)
}

func (t *Tree) newFileLocked(bn string, parent *Directory, id NodeID, perms uint32) (*File, error) {
	f := &File{state: FileClosed, source: namefs.ZeroSource{}}
	if err := t.initNodeLocked(&f.node, f, bn, parent, id, FileAttr, perms); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) State() FileState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetSource replaces the storage the file reads from. A nil source restores
// the zero-byte stub.
func (f *File) SetSource(src namefs.ByteSource) {
	if src == nil {
		src = namefs.ZeroSource{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source = src
}

// Open moves a CLOSED file to OPEN. Opening an open or deleted file is
// reported as a service failure.
func (f *File) Open() error {
	return f.transition(FileClosed, FileOpen, "open")
}

// Close moves an OPEN file to CLOSED.
func (f *File) Close() error {
	return f.transition(FileOpen, FileClosed, "close")
}

func (f *File) transition(from, to FileState, op string) error {
	logger := util.GetLogger("File." + op)
	d := f.tree.dispatch

	f.mu.Lock()
	defer f.mu.Unlock()

	cur := f.state
	if err := d.Dispatch(contract.Precondition, cur == from,
		contract.InvalidArgument("cannot %s a file in state %s", op, cur)); err != nil {
		logger.Debug().Stringer("id", f.id).Stringer("state", cur).Msg("Rejected state change")
		return contract.Wrap(op+" failed", err)
	}
	f.state = to
	return d.Dispatch(contract.Postcondition, f.state == to,
		contract.MethodFailed("file %s did not reach state %s", f.id, to))
}

// markDeleted is called by Tree.Delete
func (f *File) markDeleted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FileDeleted
}

// Read fills up to n bytes one unit at a time. Each unit is attempted up to
// the tree's ReadRetries times; io.EOF from the source ends the read early
// without an error.
func (f *File) Read(n int) ([]byte, error) {
	logger := util.GetLogger("File.Read")
	d := f.tree.dispatch

	if err := d.Dispatch(contract.Precondition, n >= 0,
		contract.InvalidArgument("read length must not be negative, got %d", n)); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := d.Dispatch(contract.Precondition, f.state == FileOpen,
		contract.InvalidArgument("cannot read a file in state %s", f.state)); err != nil {
		return nil, err
	}

	policy := retryPolicy(f.tree.cfg.ReadRetries)
	buf := make([]byte, 0, min(n, maxReadPrealloc))
	for i := 0; i < n; i++ {
		var (
			b   byte
			eof bool
		)
		attempt := 0
		op := func() error {
			attempt++
			v, err := f.source.ReadByte()
			if errors.Is(err, io.EOF) {
				eof = true
				return nil
			}
			if err != nil {
				logger.Trace().Err(err).Stringer("id", f.id).Int("offset", i).Int("attempt", attempt).Msg("Unit read failed")
				return err
			}
			b = v
			return nil
		}
		if err := backoff.Retry(op, policy); err != nil {
			logger.Warn().Err(err).Stringer("id", f.id).Int("offset", i).Msg("Giving up on unit read")
			return nil, &contract.Error{
				Kind:  contract.KindMethodFailed,
				Msg:   "read failed after retries",
				Cause: err,
			}
		}
		if eof {
			break
		}
		buf = append(buf, b)
	}
	return buf, nil
}

// retryPolicy allows attempts tries per unit. WithMaxRetries treats a
// maximum of 0 as unlimited, so a single attempt needs StopBackOff.
func retryPolicy(attempts int) backoff.BackOff {
	if attempts <= 1 {
		return &backoff.StopBackOff{}
	}
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(attempts-1))
}
