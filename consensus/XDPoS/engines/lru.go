package engines

import lru "github.com/hashicorp/golang-lru"

// signerCache caches recovered block signers keyed by header hash, the
// same hot path go-ethereum's Clique engine caches.
type signerCache struct {
	cache *lru.Cache
}

func newLRU(size int) *signerCache {
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &signerCache{cache: c}
}

func (s *signerCache) Add(key interface{}, value interface{}) {
	s.cache.Add(key, value)
}

func (s *signerCache) Get(key interface{}) (interface{}, bool) {
	return s.cache.Get(key)
}
