// Package namefs contains core domain types shared by the node tree, the
// request loaders and the CLI.
//
// Hierarchical names themselves live in package names; the in-memory tree
// whose full paths are expressed as names lives in package filesystem.
package namefs

// ByteSource is the storage collaborator behind a file. ReadByte returns the
// next unit; io.EOF ends a read early. Any other error is retried by the
// caller within its retry budget.
type ByteSource interface {
	ReadByte() (byte, error)
}

// ZeroSource is the storage stub used when a file has no backing store: it
// yields zero bytes forever.
type ZeroSource struct{}

func (ZeroSource) ReadByte() (byte, error) {
	return 0, nil
}

// SourceProvider builds the byte source named by a raw JSON source
// definition such as {"type": "text", "data": "hello"}.
type SourceProvider interface {
	NewSource(raw []byte) (ByteSource, error)
}
