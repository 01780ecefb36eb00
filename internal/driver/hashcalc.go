package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"weave/internal/link"
)

// Digest is a SHA-256 cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// UnitDigest keys a link of content under opts:
// H(schema || content || inline || maxNameAttempts || reportForwards || maxDiagnostics).
// Jobs is left out because the linked output does not depend on it.
func UnitDigest(content []byte, opts link.Options) Digest {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint16(buf[:2], diskCacheSchemaVersion)
	_, _ = h.Write(buf[:2])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(content)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write(content)
	for _, v := range []int{int(opts.Inline), opts.MaxNameAttempts, boolInt(opts.ReportForwards), opts.MaxDiagnostics} {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		_, _ = h.Write(buf[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
