// Package runner manages the artwork indexes the server can answer
// queries from. Snapshots live on disk; at most maxLoaded stay resident,
// least-recently-used first out, and indexes idle past the expiry are
// released by a background sweep.
package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/funvill/cultural-archiver-sub005/cluster"
)

const (
	sweepInterval = 5 * time.Minute
	idleExpiry    = 30 * time.Minute
)

// Info describes one saved artwork set.
type Info struct {
	ID          string    `json:"id"`
	NumArtworks int       `json:"numArtworks"`
	Timestamp   time.Time `json:"timestamp"`
	FileSize    int64     `json:"fileSize"`
}

// Manager loads, caches and evicts artwork indexes.
type Manager struct {
	dataDir   string
	maxLoaded int
	log       *zap.Logger

	mu           sync.RWMutex
	indexes      map[string]*cluster.Index
	lastAccessed map[string]time.Time

	stop chan struct{}
	done chan struct{}
}

// NewManager creates the manager and starts its eviction sweep.
func NewManager(dataDir string, maxLoaded int, log *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if maxLoaded <= 0 {
		maxLoaded = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		dataDir:      dataDir,
		maxLoaded:    maxLoaded,
		log:          log,
		indexes:      make(map[string]*cluster.Index),
		lastAccessed: make(map[string]time.Time),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go m.sweep()
	return m, nil
}

// Close stops the sweep and releases every loaded index.
func (m *Manager) Close() {
	close(m.stop)
	<-m.done
	m.mu.Lock()
	m.indexes = make(map[string]*cluster.Index)
	m.lastAccessed = make(map[string]time.Time)
	m.mu.Unlock()
}

// Create generates a synthetic artwork set, saves it compressed and keeps
// it resident. Used for demos and load testing.
func (m *Manager) Create(numArtworks int, bounds cluster.Bounds, opts cluster.Options) (Info, error) {
	ix := cluster.NewIndex(opts)
	ix.Load(cluster.GenerateArtworks(numArtworks, bounds, time.Now().UnixNano()))
	return m.Add(ix)
}

// Add saves an index to the data directory and keeps it resident.
func (m *Manager) Add(ix *cluster.Index) (Info, error) {
	id := uuid.New().String()[:8]
	path := m.filename(ix.Len(), id)
	if err := ix.SaveCompressed(path); err != nil {
		return Info{}, fmt.Errorf("failed to save artwork set: %w", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat artwork set: %w", err)
	}

	m.mu.Lock()
	m.evictLocked()
	m.indexes[id] = ix
	m.lastAccessed[id] = time.Now()
	m.mu.Unlock()

	m.log.Info("saved artwork set",
		zap.String("id", id), zap.Int("artworks", ix.Len()), zap.Int64("bytes", st.Size()))
	return Info{ID: id, NumArtworks: ix.Len(), Timestamp: time.Now(), FileSize: st.Size()}, nil
}

// Get returns the index for an id, loading it from disk if needed.
func (m *Manager) Get(id string) (*cluster.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ix, ok := m.indexes[id]; ok {
		m.lastAccessed[id] = time.Now()
		return ix, nil
	}

	path, err := m.find(id)
	if err != nil {
		return nil, err
	}
	ix, err := cluster.LoadCompressed(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load artwork set %s: %w", id, err)
	}

	m.evictLocked()
	m.indexes[id] = ix
	m.lastAccessed[id] = time.Now()
	return ix, nil
}

// List scans the data directory for saved artwork sets, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		info, ok := parseFilename(e.Name())
		if !ok {
			continue
		}
		if fi, err := e.Info(); err == nil {
			info.FileSize = fi.Size()
		}
		infos = append(infos, info)
	}
	for i, j := 0, len(infos)-1; i < j; i, j = i+1, j-1 {
		infos[i], infos[j] = infos[j], infos[i]
	}
	return infos, nil
}

// evictLocked drops the least recently used indexes until there is room
// for one more. Caller holds the write lock.
func (m *Manager) evictLocked() {
	for len(m.indexes) >= m.maxLoaded {
		var oldestID string
		var oldest time.Time
		for id, at := range m.lastAccessed {
			if oldestID == "" || at.Before(oldest) {
				oldestID = id
				oldest = at
			}
		}
		if oldestID == "" {
			return
		}
		delete(m.indexes, oldestID)
		delete(m.lastAccessed, oldestID)
		m.log.Info("evicted artwork set", zap.String("id", oldestID))
	}
}

func (m *Manager) sweep() {
	defer close(m.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for id, at := range m.lastAccessed {
				if now.Sub(at) > idleExpiry {
					delete(m.indexes, id)
					delete(m.lastAccessed, id)
					m.log.Info("released idle artwork set", zap.String("id", id))
				}
			}
			m.mu.Unlock()
		}
	}
}

// Snapshot files are named artworks-{count}p-{timestamp}-{id}.zst.

func (m *Manager) filename(numArtworks int, id string) string {
	ts := time.Now().Format("20060102-150405")
	return filepath.Join(m.dataDir, fmt.Sprintf("artworks-%dp-%s-%s.zst", numArtworks, ts, id))
}

func (m *Manager) find(id string) (string, error) {
	entries, err := os.ReadDir(m.dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), id) && strings.HasSuffix(e.Name(), ".zst") {
			return filepath.Join(m.dataDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no artwork set found with id %s", id)
}

func parseFilename(name string) (Info, bool) {
	if !strings.HasPrefix(name, "artworks-") || !strings.HasSuffix(name, ".zst") {
		return Info{}, false
	}
	parts := strings.Split(strings.TrimSuffix(name, ".zst"), "-")
	if len(parts) != 5 {
		return Info{}, false
	}
	count, err := strconv.Atoi(strings.TrimSuffix(parts[1], "p"))
	if err != nil {
		return Info{}, false
	}
	ts, err := time.ParseInLocation("20060102-150405", parts[2]+"-"+parts[3], time.Local)
	if err != nil {
		return Info{}, false
	}
	return Info{ID: parts[4], NumArtworks: count, Timestamp: ts}, true
}
