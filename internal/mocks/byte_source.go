package mocks

import (
	"github.com/brettbedarf/namefs"
	"github.com/stretchr/testify/mock"
)

// MockByteSource implements namefs.ByteSource for testing across packages
type MockByteSource struct {
	mock.Mock
}

func (m *MockByteSource) ReadByte() (byte, error) {
	args := m.Called()

	// Handle function return types (for stateful sources)
	if fn, ok := args.Get(0).(func() byte); ok {
		return fn(), args.Error(1)
	}

	if args.Get(0) == nil {
		return 0, args.Error(1)
	}
	return args.Get(0).(byte), args.Error(1)
}

var _ namefs.ByteSource = (*MockByteSource)(nil)

// MockSourceProvider implements namefs.SourceProvider for testing across packages
type MockSourceProvider struct {
	mock.Mock
}

func (m *MockSourceProvider) NewSource(raw []byte) (namefs.ByteSource, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(namefs.ByteSource), args.Error(1)
}

var _ namefs.SourceProvider = (*MockSourceProvider)(nil)
