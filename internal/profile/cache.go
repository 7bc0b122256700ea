package profile

import (
	"fmt"

	"github.com/drakos74/free-ml/internal/frame"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

// Cache keeps the most recent reports by dataset content and options.
type Cache struct {
	reports *lru.Cache
}

// NewCache creates a report cache of the given size.
func NewCache(size int) (*Cache, error) {
	reports, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("could not create report cache: %w", err)
	}
	return &Cache{reports: reports}, nil
}

type key struct {
	fingerprint uint64
	options     Options
}

// Build returns the cached report of the frame or builds a new one.
func (c *Cache) Build(f *frame.Frame, opts Options) (*Report, error) {
	if f == nil {
		return nil, ErrNoDataset
	}
	k := key{
		fingerprint: f.Fingerprint(),
		options:     opts,
	}
	if r, ok := c.reports.Get(k); ok {
		log.Debug().Uint64("fingerprint", k.fingerprint).Msg("cached profile")
		return r.(*Report), nil
	}
	r, err := Build(f, opts)
	if err != nil {
		return nil, err
	}
	c.reports.Add(k, r)
	return r, nil
}

// Len returns the number of cached reports.
func (c *Cache) Len() int {
	return c.reports.Len()
}
