package memorial

import (
	"sync"
	"time"
)

// PDFCache holds the most recently printed book so repeated preview
// requests skip the browser. An entry is reused only while the dataset's
// modification time is unchanged and the TTL has not expired.
type PDFCache struct {
	mu      sync.RWMutex
	pdf     []byte
	modTime time.Time
	fetched time.Time
	ttl     time.Duration
}

// NewPDFCache creates a PDFCache whose entries live for ttl.
func NewPDFCache(ttl time.Duration) *PDFCache {
	return &PDFCache{ttl: ttl}
}

func (c *PDFCache) valid(modTime time.Time) bool {
	return c.pdf != nil && c.modTime.Equal(modTime) && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read prints a fresh PDF.
func (c *PDFCache) Invalidate() {
	c.mu.Lock()
	c.pdf = nil
	c.mu.Unlock()
}

// Get returns the cached PDF for a dataset last modified at modTime, calling
// build to print a new one when the cache is stale. Failed builds are not
// cached.
// It tries a read lock first; only takes a write lock if a rebuild is needed.
func (c *PDFCache) Get(modTime time.Time, build func() ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	if c.valid(modTime) {
		pdf := c.pdf
		c.mu.RUnlock()
		return pdf, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid(modTime) {
		return c.pdf, nil
	}
	pdf, err := build()
	if err != nil {
		return nil, err
	}
	c.pdf = pdf
	c.modTime = modTime
	c.fetched = time.Now()
	return pdf, nil
}
