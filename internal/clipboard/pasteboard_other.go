//go:build !darwin

package clipboard

// New returns a process-local pasteboard. Only macOS has a system
// pasteboard bridge.
func New() Pasteboard {
	return NewMemory()
}
