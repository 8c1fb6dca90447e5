// Package mediainfo caches item metadata in memory and in the local
// database, fetching what is missing from the API in batches.
package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/glabrego/gallery-cli/internal/media"
)

var ErrNotFound = errors.New("media info not found")

type Fetcher interface {
	FetchInfo(ctx context.Context, ids []media.ID) ([]media.Info, error)
}

// Store is the persistent layer. LoadInfo skips ids it has nothing for.
type Store interface {
	LoadInfo(ctx context.Context, ids []media.ID) ([]media.Info, error)
	SaveInfo(ctx context.Context, infos []media.Info) error
}

// flushTimeout bounds a fetch of queued ids that no Prefetch call is
// waiting on.
const flushTimeout = 20 * time.Second

type Options struct {
	// MaxBatch is the most ids sent in one request.
	MaxBatch int
	// MinBatch is the fewest ids a prefetch sends. Smaller sets are queued
	// until later prefetches fill them up or MaxWait passes. 0 or 1 sends
	// everything at once.
	MinBatch int
	MaxWait  time.Duration
	// Parallel bounds the batches in flight for one Prefetch.
	Parallel int
}

func DefaultOptions() Options {
	return Options{MaxBatch: 50, MinBatch: 8, MaxWait: 150 * time.Millisecond, Parallel: 2}
}

type Cache struct {
	fetcher Fetcher
	store   Store
	log     zerolog.Logger
	opts    Options
	group   singleflight.Group

	mu      sync.RWMutex
	infos   map[media.ID]media.Info
	absent  map[media.ID]bool
	pending map[media.ID]bool
	subs    map[int]func([]media.ID)
	nextSub int

	// queued ids are claimed but wait for a batch of MinBatch.
	queued []media.ID
	timer  *time.Timer
}

// New returns a cache. store may be nil.
func New(fetcher Fetcher, store Store, opts Options, log zerolog.Logger) *Cache {
	def := DefaultOptions()
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = def.MaxBatch
	}
	if opts.Parallel <= 0 {
		opts.Parallel = def.Parallel
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = def.MaxWait
	}
	return &Cache{
		fetcher: fetcher,
		store:   store,
		log:     log.With().Str("component", "mediainfo").Logger(),
		opts:    opts,
		infos:   make(map[media.ID]media.Info),
		absent:  make(map[media.ID]bool),
		pending: make(map[media.ID]bool),
		subs:    make(map[int]func([]media.ID)),
	}
}

// InfoSync returns metadata that is already in memory. It never blocks on
// I/O.
func (c *Cache) InfoSync(id media.ID) (media.Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.infos[id]
	return info, ok
}

// Info returns metadata for id, loading it if needed. Concurrent callers for
// the same id share one request.
func (c *Cache) Info(ctx context.Context, id media.ID) (media.Info, error) {
	if info, ok := c.InfoSync(id); ok {
		return info, nil
	}
	_, err, _ := c.group.Do(id.String(), func() (any, error) {
		return nil, c.load(ctx, []media.ID{id})
	})
	if err != nil {
		return media.Info{}, err
	}
	if info, ok := c.InfoSync(id); ok {
		return info, nil
	}
	return media.Info{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

// Prefetch loads metadata for the ids that are neither known nor already
// being fetched. Ids the API did not return are not requested again by
// later prefetches. Fewer than MinBatch new ids are queued and sent with a
// later prefetch, or on their own after MaxWait; subscribers hear about them
// either way.
func (c *Cache) Prefetch(ctx context.Context, ids []media.ID) error {
	want := c.claim(ids)
	if len(want) == 0 {
		return nil
	}
	batch, ok := c.enqueue(want)
	if !ok {
		return nil
	}
	defer c.release(batch)
	return c.load(ctx, batch)
}

// enqueue adds want to the queue and takes the whole queue once it holds
// MinBatch ids.
func (c *Cache) enqueue(want []media.ID) ([]media.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queued = append(c.queued, want...)
	if len(c.queued) < c.opts.MinBatch {
		if c.timer == nil {
			c.timer = time.AfterFunc(c.opts.MaxWait, c.flush)
		}
		return nil, false
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	batch := c.queued
	c.queued = nil
	return batch, true
}

// flush fetches whatever is queued when MaxWait runs out.
func (c *Cache) flush() {
	c.mu.Lock()
	batch := c.queued
	c.queued = nil
	c.timer = nil
	c.mu.Unlock()
	if len(batch) == 0 {
		return
	}
	defer c.release(batch)

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	c.log.Debug().Int("ids", len(batch)).Msg("flushing short batch")
	if err := c.load(ctx, batch); err != nil {
		c.log.Warn().Err(err).Int("ids", len(batch)).Msg("queued info fetch failed")
	}
}

// Subscribe registers fn to be called with the ids whose metadata just
// arrived. fn runs on the fetching goroutine.
func (c *Cache) Subscribe(fn func(ids []media.ID)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.nextSub
	c.nextSub++
	c.subs[key] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, key)
	}
}

func (c *Cache) claim(ids []media.ID) []media.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []media.ID
	for _, id := range ids {
		if _, ok := c.infos[id]; ok || c.absent[id] || c.pending[id] {
			continue
		}
		c.pending[id] = true
		out = append(out, id)
	}
	return out
}

func (c *Cache) release(ids []media.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.pending, id)
	}
}

func (c *Cache) unknown(ids []media.ID) []media.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]media.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := c.infos[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (c *Cache) load(ctx context.Context, ids []media.ID) error {
	if c.store != nil {
		stored, err := c.store.LoadInfo(ctx, ids)
		if err != nil {
			c.log.Warn().Err(err).Int("ids", len(ids)).Msg("read cached info failed")
		} else if len(stored) > 0 {
			c.add(stored, nil)
		}
		ids = c.unknown(ids)
	}
	if len(ids) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Parallel)
	for start := 0; start < len(ids); start += c.opts.MaxBatch {
		batch := ids[start:min(start+c.opts.MaxBatch, len(ids))]
		g.Go(func() error {
			infos, err := c.fetcher.FetchInfo(gctx, batch)
			if err != nil {
				return fmt.Errorf("fetch info for %d ids: %w", len(batch), err)
			}
			if c.store != nil {
				if err := c.store.SaveInfo(gctx, infos); err != nil {
					c.log.Warn().Err(err).Int("ids", len(infos)).Msg("save info failed")
				}
			}
			c.add(infos, batch)
			return nil
		})
	}
	return g.Wait()
}

// add stores infos and notifies subscribers. Requested ids that are still
// unknown afterwards are remembered as absent.
func (c *Cache) add(infos []media.Info, requested []media.ID) {
	c.mu.Lock()
	arrived := make([]media.ID, 0, len(infos))
	for _, info := range infos {
		c.infos[info.ID] = info
		delete(c.absent, info.ID)
		arrived = append(arrived, info.ID)
	}
	for _, id := range requested {
		if _, ok := c.infos[id]; !ok {
			c.absent[id] = true
		}
	}
	subs := make([]func([]media.ID), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if len(arrived) == 0 {
		return
	}
	c.log.Debug().Int("ids", len(arrived)).Msg("info arrived")
	for _, fn := range subs {
		fn(arrived)
	}
}
