package stancsv

import (
	"errors"
	"io/fs"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// cacheSuffix is appended to the output file path to form its sidecar.
const cacheSuffix = ".meta"

// cacheEntry wraps scanned metadata with the source file's identity at scan
// time. A size or mtime mismatch invalidates the entry.
type cacheEntry struct {
	Size    int64     `msgpack:"size"`
	ModTime int64     `msgpack:"mod_time"`
	Meta    *Metadata `msgpack:"meta"`
}

// LoadCachedMetadata returns the cached scan result for the output file at
// path. It returns nil when no sidecar exists, the sidecar is stale, or it
// cannot be decoded; a missing or corrupt cache is never an error.
func LoadCachedMetadata(path string) *Metadata {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	raw, err := os.ReadFile(path + cacheSuffix)
	if err != nil {
		return nil
	}

	var entry cacheEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return nil
	}
	if entry.Meta == nil || entry.Size != info.Size() || entry.ModTime != info.ModTime().UnixNano() {
		return nil
	}
	return entry.Meta
}

// StoreCachedMetadata writes meta to the sidecar of the output file at path.
func StoreCachedMetadata(path string, meta *Metadata) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	raw, err := msgpack.Marshal(cacheEntry{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Meta:    meta,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path+cacheSuffix, raw, 0o644)
}

// InvalidateCachedMetadata removes the sidecar for the output file at path,
// if any.
func InvalidateCachedMetadata(path string) error {
	err := os.Remove(path + cacheSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
