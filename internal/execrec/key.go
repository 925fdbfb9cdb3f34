package execrec

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"calltrace/internal/srcloc"
)

// Digest - ключ кэша вердиктов, SHA-256
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// KeyParams are the inputs that change a verdict besides the trace files.
type KeyParams struct {
	Constraint    *srcloc.Constraint
	TruncCount    int
	VerifyReturns bool
}

// KeyFor hashes the parameters and the name, size and modification time of
// every regular file in the record. File contents are not read.
func KeyFor(rec Record, p KeyParams) (Digest, error) {
	entries, err := os.ReadDir(rec.Dir)
	if err != nil {
		return Digest{}, fmt.Errorf("read record %s: %w", rec.Name, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	h := sha256.New()
	var num [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(num[:], uint64(v))
		_, _ = h.Write(num[:])
	}
	writeStr := func(s string) {
		writeInt(int64(len(s)))
		_, _ = h.Write([]byte(s))
	}

	writeInt(int64(cacheSchemaVersion))
	if p.Constraint != nil {
		writeStr(p.Constraint.String())
	} else {
		writeStr("")
	}
	writeInt(int64(p.TruncCount))
	if p.VerifyReturns {
		writeInt(1)
	} else {
		writeInt(0)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return Digest{}, fmt.Errorf("stat %s/%s: %w", rec.Name, e.Name(), err)
		}
		writeStr(e.Name())
		writeInt(info.Size())
		writeInt(info.ModTime().UnixNano())
	}

	var out Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}
