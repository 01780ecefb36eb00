package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"weave/internal/diag"
	"weave/internal/link"
	"weave/internal/source"
	"weave/internal/unitio"
)

// Current schema version - increment when Payload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores linked units on disk keyed by unit Digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is one cached link result.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path   string
	Digest Digest

	// Linked unit; its Files order matches the FileIDs in Diagnostics.
	Unit *unitio.Unit

	Stats       link.Stats
	Broken      bool
	Diagnostics []CachedDiagnostic
}

// CachedDiagnostic is a diagnostic with spans in unit wire form.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Span     *unitio.Span
	Notes    []CachedNote
}

type CachedNote struct {
	Span *unitio.Span
	Msg  string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it if needed.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	enc := msgpack.NewEncoder(f)
	enc.UseCompactInts(true)
	if err = enc.Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. A payload of
// another schema counts as a miss.
func (c *DiskCache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	if out.Schema != diskCacheSchemaVersion || out.Digest != key || out.Unit == nil {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// newPayload captures a finished link. Timing and cancellation
// diagnostics are not cached.
func newPayload(path string, key Digest, unit *unitio.Unit, stats link.Stats, bag *diag.Bag) *Payload {
	p := &Payload{
		Schema: diskCacheSchemaVersion,
		Path:   path,
		Digest: key,
		Unit:   unit,
		Stats:  stats,
		Broken: bag.HasErrors(),
	}
	for _, d := range bag.Items() {
		if d.Code == diag.ObsTimings || d.Code == diag.LinkCanceled {
			continue
		}
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Span:     cacheSpan(d.Primary),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Span: cacheSpan(n.Span), Msg: n.Msg})
		}
		p.Diagnostics = append(p.Diagnostics, cd)
	}
	return p
}

// restore fills bag from p. FileIDs are dense in unit file order, so a
// cached span File is valid against the FileSet rebuilt from p.Unit.
func (p *Payload) restore(bag *diag.Bag) error {
	for _, cd := range p.Diagnostics {
		primary, err := restoreSpan(cd.Span)
		if err != nil {
			return err
		}
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  primary,
		}
		for _, n := range cd.Notes {
			sp, err := restoreSpan(n.Span)
			if err != nil {
				return err
			}
			d.Notes = append(d.Notes, diag.Note{Span: sp, Msg: n.Msg})
		}
		bag.Add(d)
	}
	return nil
}

func cacheSpan(s source.Span) *unitio.Span {
	if s == (source.Span{}) {
		return nil
	}
	return &unitio.Span{File: int64(s.File), Start: int64(s.Start), End: int64(s.End)}
}

func restoreSpan(s *unitio.Span) (source.Span, error) {
	if s == nil {
		return source.Span{}, nil
	}
	file, err := safecast.Conv[uint32](s.File)
	if err != nil {
		return source.Span{}, fmt.Errorf("cached span file: %w", err)
	}
	start, err := safecast.Conv[uint32](s.Start)
	if err != nil {
		return source.Span{}, fmt.Errorf("cached span start: %w", err)
	}
	end, err := safecast.Conv[uint32](s.End)
	if err != nil {
		return source.Span{}, fmt.Errorf("cached span end: %w", err)
	}
	return source.Span{File: source.FileID(file), Start: start, End: end}, nil
}
