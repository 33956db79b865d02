package container

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cache manages generated container files on disk. Batch runs write one
// file per realization; the cache keeps at most maxFiles of them so that
// repeated test-data generation cannot fill the disk.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache creates a Cache that stores files in dir and keeps at most maxFiles.
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 16
	}
	return &Cache{
		dir:      dir,
		maxFiles: maxFiles,
	}
}

// Write saves a container to a timestamped, sequence-numbered file and
// prunes old files beyond maxFiles. Returns the path written.
func (c *Cache) Write(r *DynamicResponse, ts time.Time, seq int) (string, error) {
	if err := c.ensureDir(); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("dynresp_%d_%04d.dat", ts.Unix(), seq)
	path := filepath.Join(c.dir, filename)

	if err := r.Save(path); err != nil {
		return "", err
	}

	return path, c.prune()
}

// LoadLatest reads the newest cache file by timestamp and sequence in
// the filename. Returns the container, its timestamp, and any error.
func (c *Cache) LoadLatest() (*DynamicResponse, time.Time, error) {
	files, err := c.listFiles()
	if err != nil {
		return nil, time.Time{}, err
	}

	if len(files) == 0 {
		return nil, time.Time{}, fmt.Errorf("container: no cache files found")
	}

	// Files are sorted oldest first; take the last one.
	latest := files[len(files)-1]
	r, err := Load(filepath.Join(c.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, err
	}

	return r, latest.ts, nil
}

type cacheFile struct {
	name string
	ts   time.Time
	seq  int
}

func (c *Cache) listFiles() ([]cacheFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("container: listing cache dir: %w", err)
	}

	var files []cacheFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "dynresp_") || !strings.HasSuffix(name, ".dat") {
			continue
		}
		// Extract unix timestamp and sequence number from the filename.
		base := strings.TrimPrefix(name, "dynresp_")
		base = strings.TrimSuffix(base, ".dat")
		tsStr, seqStr, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		unix, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		seq, err := strconv.Atoi(seqStr)
		if err != nil {
			continue
		}
		files = append(files, cacheFile{name: name, ts: time.Unix(unix, 0), seq: seq})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ts.Equal(files[j].ts) {
			return files[i].ts.Before(files[j].ts)
		}
		return files[i].seq < files[j].seq
	})

	return files, nil
}

func (c *Cache) prune() error {
	files, err := c.listFiles()
	if err != nil {
		return err
	}

	if len(files) <= c.maxFiles {
		return nil
	}

	// Remove oldest files.
	toRemove := files[:len(files)-c.maxFiles]
	for _, f := range toRemove {
		path := filepath.Join(c.dir, f.name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("container: pruning cache file %s: %w", f.name, err)
		}
	}

	return nil
}

func (c *Cache) ensureDir() error {
	return os.MkdirAll(c.dir, 0755)
}
