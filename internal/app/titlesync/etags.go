package titlesync

import "sync"

type resource int

const (
	resourceTitles resource = iota
	resourceMembers
)

type etagKey struct {
	resource      resource
	corporationID int64
}

// etagCache holds the ETag of the last response applied per corporation and
// resource. A tag is committed only once the data it validates is stored,
// so a failed save is fetched again in full on the next attempt.
//
// forget bumps the key's generation; a commit carrying an older generation
// is dropped, so a pass that fetched before the forget cannot restore a tag
// that no longer describes the stored state.
type etagCache struct {
	mu   sync.Mutex
	tags map[etagKey]string
	gens map[etagKey]uint64
}

func newETagCache() *etagCache {
	return &etagCache{
		tags: make(map[etagKey]string),
		gens: make(map[etagKey]uint64),
	}
}

// get returns the tag to send and the generation to commit against.
func (c *etagCache) get(r resource, corporationID int64) (string, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := etagKey{r, corporationID}
	return c.tags[k], c.gens[k]
}

func (c *etagCache) commit(r resource, corporationID int64, gen uint64, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := etagKey{r, corporationID}
	if c.gens[k] != gen {
		return
	}
	if tag == "" {
		delete(c.tags, k)
		return
	}
	c.tags[k] = tag
}

func (c *etagCache) forget(r resource, corporationID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := etagKey{r, corporationID}
	delete(c.tags, k)
	c.gens[k]++
}
