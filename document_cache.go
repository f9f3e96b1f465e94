package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"go-pkpass/locale"
	"go-pkpass/pkpass"
)

const DefaultDocumentCacheSize = 128

type documentKey struct {
	id        string
	languages string
}

// DocumentCache keeps parsed documents of stored passes. A document renders
// for one locale, so entries are keyed by pass id and UI languages.
type DocumentCache struct {
	storage PassStorage
	cache   *lru.Cache[documentKey, *pkpass.Document]
	metrics *Metrics

	// generation is bumped by Invalidate so a Get that read storage before
	// a removal does not cache the removed pass.
	mu         sync.Mutex
	generation uint64
}

func NewDocumentCache(storage PassStorage, size int, metrics *Metrics) (*DocumentCache, error) {
	if size <= 0 {
		size = DefaultDocumentCacheSize
	}
	cache, err := lru.New[documentKey, *pkpass.Document](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	return &DocumentCache{storage: storage, cache: cache, metrics: metrics}, nil
}

func keyFor(id string, loc *locale.Locale) documentKey {
	return documentKey{id: id, languages: strings.Join(loc.UILanguages(), ",")}
}

// Get returns the document stored under id, parsed for loc.
func (c *DocumentCache) Get(id string, loc *locale.Locale) (*pkpass.Document, error) {
	key := keyFor(id, loc)
	if doc, ok := c.cache.Get(key); ok {
		c.metrics.cacheLookups.WithLabelValues("hit").Inc()
		return doc, nil
	}
	c.metrics.cacheLookups.WithLabelValues("miss").Inc()

	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	data, err := c.storage.RetrievePass(id)
	if err != nil {
		return nil, err
	}
	doc, err := pkpass.FromBytes(data, pkpass.WithLocale(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to load stored pass %s: %w", id, err)
	}

	c.mu.Lock()
	cached := c.generation == generation
	if cached {
		c.cache.Add(key, doc)
	}
	c.mu.Unlock()

	if !cached {
		// a removal ran meanwhile, the pass may be gone
		if _, err := c.storage.RetrievePass(id); err != nil {
			return nil, err
		}
		slog.Debug("Skipped caching pass invalidated during load", "id", id)
		return doc, nil
	}
	slog.Debug("Cached parsed pass", "id", id, "languages", key.languages)
	return doc, nil
}

// Put caches a document that was just parsed for loc.
func (c *DocumentCache) Put(id string, loc *locale.Locale, doc *pkpass.Document) {
	c.cache.Add(keyFor(id, loc), doc)
}

// Invalidate drops every cached rendering of id.
func (c *DocumentCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for _, key := range c.cache.Keys() {
		if key.id == id {
			c.cache.Remove(key)
		}
	}
}
