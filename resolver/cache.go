// seehuhn.de/go/svgfonts - embed fonts into SVG documents
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"seehuhn.de/go/svgfonts/scan"
)

// cacheKey computes the stable identity of a cache entry.
func cacheKey(ref scan.Reference) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%s",
		ref.Key().Family, ref.Style, ref.Weight, ref.Locator)
	return hex.EncodeToString(h.Sum(nil))
}

// cacheMeta is the sidecar record stored next to each cached font.
type cacheMeta struct {
	Fetched time.Time `yaml:"fetched"`
	Backend string    `yaml:"backend"`
	Format  string    `yaml:"format"`
	Family  string    `yaml:"family"`
}

// diskCache stores fetched font binaries across runs.  Writes go to a
// temporary file first and are moved into place atomically, so
// concurrent runs sharing a cache directory never see partial
// entries.
type diskCache struct {
	dir   string
	ttl   time.Duration
	clock clockwork.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDiskCache(dir string, ttl time.Duration, clock clockwork.Clock) (*diskCache, error) {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, err
	}
	return &diskCache{
		dir:   dir,
		ttl:   ttl,
		clock: clock,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (c *diskCache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

func (c *diskCache) fontPath(key string) string {
	return filepath.Join(c.dir, key+".font")
}

func (c *diskCache) metaPath(key string) string {
	return filepath.Join(c.dir, key+".yaml")
}

// get returns the cached font data for a key, if present and fresh.
func (c *diskCache) get(key string) ([]byte, bool) {
	l := c.keyLock(key)
	l.Lock()
	defer l.Unlock()

	metaData, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		return nil, false
	}
	var meta cacheMeta
	if err := yaml.Unmarshal(metaData, &meta); err != nil {
		return nil, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(meta.Fetched) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(c.fontPath(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// put stores a resolved font under the given key.
func (c *diskCache) put(key string, font *ResolvedFont) error {
	l := c.keyLock(key)
	l.Lock()
	defer l.Unlock()

	meta := cacheMeta{
		Fetched: c.clock.Now(),
		Backend: font.From.String(),
		Format:  font.Format.String(),
		Family:  font.Ref.Family,
	}
	metaData, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}

	if err := writeAtomic(c.fontPath(key), font.Binary); err != nil {
		return err
	}
	return writeAtomic(c.metaPath(key), metaData)
}

// writeAtomic writes data to path via a temporary file and rename.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(data)
	if err2 := tmp.Close(); err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
