// Package statecache implements the state-root reconciliation cache
// (C4): a persistent (remote_root => local_root) and (block => root)
// mapping that papers over known, deterministic state-root divergence
// between this implementation and the reference client at checkpoint
// blocks, so the chain does not halt at epoch boundaries.
package statecache

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/xdc-network/xdpos-core/common"
	"github.com/xdc-network/xdpos-core/log"
)

// PersistInterval is the block-count cadence at which insert triggers
// an automatic save.
const PersistInterval = 100

// csvHeader is the first line of the persisted file.
const csvHeader = "block_number,remote_root_hex,local_root_hex"

// Cache is the thread-safe state-root reconciliation table. A single
// reader-writer lock guards the maps backing it (§5); fastcache fronts
// get_local_root with a fixed-capacity byte cache so hot lookups avoid
// map-lock contention under read-heavy validation traffic.
type Cache struct {
	mu sync.RWMutex

	remoteToLocal map[common.Hash]common.Hash
	blockToLocal  map[uint64]common.Hash
	blockToRemote map[uint64]common.Hash

	hot *fastcache.Cache

	persistPath        string
	capacity           int
	lastPersistedBlock uint64
}

// New returns an empty cache. persistPath may be empty to disable
// on-disk persistence entirely (an in-memory-only cache, useful for
// tests). capacity bounds the number of (block => root) entries kept
// before eviction.
func New(persistPath string, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		remoteToLocal: make(map[common.Hash]common.Hash),
		blockToLocal:  make(map[uint64]common.Hash),
		blockToRemote: make(map[uint64]common.Hash),
		hot:           fastcache.New(1 << 20),
		persistPath:   persistPath,
		capacity:      capacity,
	}
}

// Insert records that remoteRoot observed at blockNumber corresponds
// locally to localRoot. A no-op when the roots already agree -- there
// is no divergence to reconcile. Triggers eviction when over capacity
// and a best-effort save every PersistInterval blocks.
func (c *Cache) Insert(remoteRoot, localRoot common.Hash, blockNumber uint64) {
	if remoteRoot == localRoot {
		return
	}

	c.mu.Lock()
	c.remoteToLocal[remoteRoot] = localRoot
	c.blockToLocal[blockNumber] = localRoot
	c.blockToRemote[blockNumber] = remoteRoot
	c.hot.Set(remoteRoot.Bytes(), localRoot.Bytes())

	if len(c.blockToLocal) > c.capacity {
		c.evictOldest(c.capacity / 10)
	}

	shouldPersist := blockNumber >= c.lastPersistedBlock+PersistInterval
	if shouldPersist {
		c.lastPersistedBlock = blockNumber
	}
	c.mu.Unlock()

	if shouldPersist {
		if err := c.Save(); err != nil {
			log.Warn("state root cache: persist failed", "block", blockNumber, "err", err)
		}
	}
}

// evictOldest drops the count lowest block numbers and their reverse
// mappings. Caller holds the write lock.
func (c *Cache) evictOldest(count int) {
	blocks := make([]uint64, 0, len(c.blockToLocal))
	for b := range c.blockToLocal {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	if count > len(blocks) {
		count = len(blocks)
	}
	for _, b := range blocks[:count] {
		if remote, ok := c.blockToRemote[b]; ok {
			delete(c.remoteToLocal, remote)
			c.hot.Del(remote.Bytes())
		}
		delete(c.blockToLocal, b)
		delete(c.blockToRemote, b)
	}
}

// GetLocalRoot returns the local root cached for remoteRoot, if any.
func (c *Cache) GetLocalRoot(remoteRoot common.Hash) (common.Hash, bool) {
	if b := c.hot.Get(nil, remoteRoot.Bytes()); len(b) == 32 {
		return common.BytesToHash(b), true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	root, ok := c.remoteToLocal[remoteRoot]
	return root, ok
}

// GetRootByBlock returns the local root recorded for blockNumber, if
// any.
func (c *Cache) GetRootByBlock(blockNumber uint64) (common.Hash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	root, ok := c.blockToLocal[blockNumber]
	return root, ok
}

// FindValidRoot linearly scans backward from fromBlock down to
// fromBlock-scanRange (both inclusive, stopping at block 0) for the
// first cached root, used on startup to
// anchor the chain head without rewinding to genesis.
func (c *Cache) FindValidRoot(fromBlock, scanRange uint64) (uint64, common.Hash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	start := uint64(0)
	if fromBlock > scanRange {
		start = fromBlock - scanRange
	}
	for b := fromBlock; ; b-- {
		if root, ok := c.blockToLocal[b]; ok {
			return b, root, true
		}
		if b == start {
			break
		}
	}
	return 0, common.Hash{}, false
}

// Save atomically writes the full cache to disk: a temp file in the
// same directory, written in ascending block order, then renamed over
// the configured path. A no-op when no persist path is configured.
func (c *Cache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.persistPath == "" {
		return nil
	}

	if dir := filepath.Dir(c.persistPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := c.persistPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		f.Close()
		return err
	}

	blocks := make([]uint64, 0, len(c.blockToLocal))
	for b := range c.blockToLocal {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	for _, b := range blocks {
		remote, ok := c.blockToRemote[b]
		if !ok {
			continue
		}
		local := c.blockToLocal[b]
		if _, err := fmt.Fprintf(w, "%d,%s,%s\n", b, remote.Hex(), local.Hex()); err != nil {
			f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.persistPath)
}

// Load replaces the cache's contents with what is persisted at the
// configured path. Malformed lines are logged and skipped rather than
// failing the whole load. A no-op (returning 0, nil) when no persist
// path is configured or the file does not exist yet.
func (c *Cache) Load() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.persistPath == "" {
		return 0, nil
	}

	f, err := os.Open(c.persistPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	c.remoteToLocal = make(map[common.Hash]common.Hash)
	c.blockToLocal = make(map[uint64]common.Hash)
	c.blockToRemote = make(map[uint64]common.Hash)
	c.hot.Reset()

	scanner := bufio.NewScanner(f)
	count := 0
	lineNum := 0
	for scanner.Scan() {
		line := scanner.Text()
		if lineNum == 0 && strings.HasPrefix(line, "block_number") {
			lineNum++
			continue
		}
		lineNum++

		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			log.Warn("state root cache: malformed line", "line", lineNum, "text", line)
			continue
		}
		blockNumber, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			log.Warn("state root cache: bad block number", "line", lineNum, "err", err)
			continue
		}
		remoteHex := strings.TrimPrefix(strings.TrimSpace(parts[1]), "0x")
		localHex := strings.TrimPrefix(strings.TrimSpace(parts[2]), "0x")
		if len(remoteHex) != 64 || len(localHex) != 64 {
			log.Warn("state root cache: bad hash length", "line", lineNum)
			continue
		}
		if _, err := hex.DecodeString(remoteHex); err != nil {
			log.Warn("state root cache: bad remote root hex", "line", lineNum, "err", err)
			continue
		}
		if _, err := hex.DecodeString(localHex); err != nil {
			log.Warn("state root cache: bad local root hex", "line", lineNum, "err", err)
			continue
		}
		remote := common.HexToHash(remoteHex)
		local := common.HexToHash(localHex)

		c.remoteToLocal[remote] = local
		c.blockToLocal[blockNumber] = local
		c.blockToRemote[blockNumber] = remote
		c.hot.Set(remote.Bytes(), local.Bytes())
		if blockNumber > c.lastPersistedBlock {
			c.lastPersistedBlock = blockNumber
		}
		count++
	}
	return count, scanner.Err()
}
