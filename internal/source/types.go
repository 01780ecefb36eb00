package source

import "sync"

// FileID identifies an original source file of the compilation unit.
// The zero value means "no file" (synthesized syntax).
type FileID uint32

// NoFileID marks spans of nodes created by the linker itself.
const NoFileID FileID = 0

// FileSet maps file IDs to the paths recorded by the upstream front end.
// The linker never reads file contents; paths only decorate diagnostics.
type FileSet struct {
	mu    sync.RWMutex
	paths []string
	index map[string]FileID
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]FileID)}
}

// Add registers path and returns its ID. Adding the same path twice returns
// the ID assigned the first time.
func (fs *FileSet) Add(path string) FileID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if id, ok := fs.index[path]; ok {
		return id
	}
	fs.paths = append(fs.paths, path)
	id := FileID(len(fs.paths))
	fs.index[path] = id
	return id
}

// Path returns the path for id, or "" for NoFileID and unknown IDs.
func (fs *FileSet) Path(id FileID) string {
	if fs == nil || id == NoFileID {
		return ""
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if int(id) > len(fs.paths) {
		return ""
	}
	return fs.paths[id-1]
}

// Paths returns all registered paths in ID order.
func (fs *FileSet) Paths() []string {
	if fs == nil {
		return nil
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, len(fs.paths))
	copy(out, fs.paths)
	return out
}

// Len reports the number of registered files.
func (fs *FileSet) Len() int {
	if fs == nil {
		return 0
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.paths)
}
