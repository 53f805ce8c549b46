// Package campaign keeps the segment list of the campaign running on this
// kiosk. The list comes from the back office API and is cached on disk so
// the wheel still works while the API is unreachable.
package campaign

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"gowheel/wheel"
)

var (
	// ErrDuplicateOrder is returned when two segments share a segment_order.
	ErrDuplicateOrder = errors.New("campaign: duplicate segment_order")

	// ErrNotConfigured is returned by FetchFromAPI without an API URL.
	ErrNotConfigured = errors.New("campaign: api url not configured")
)

// Config holds campaign source settings.
type Config struct {
	URL       string        `yaml:"url"`
	CAFile    string        `yaml:"ca_file"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	CacheFile string        `yaml:"cache_file"`
	Refresh   string        `yaml:"refresh"` // cron spec, default "@every 15m"
	Timeout   time.Duration `yaml:"timeout"`
}

// Entry is one segment as the API and the cache file describe it.
type Entry struct {
	SegmentOrder int    `json:"segment_order" yaml:"segment_order"`
	Label        string `json:"label" yaml:"label"`
	Color        string `json:"color,omitempty" yaml:"color,omitempty"`
}

type document struct {
	Campaign string  `json:"campaign" yaml:"campaign"`
	Version  int64   `json:"version" yaml:"version"`
	Segments []Entry `json:"segments" yaml:"segments"`
}

// Snapshot is an immutable view of the segment list at one point in time.
type Snapshot struct {
	Name     string
	Version  int64 // version reported by the API
	Revision uint64
	Segments []wheel.Segment
}

// Labels returns the segment labels in wheel order.
func (s Snapshot) Labels() []string {
	labels := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		labels[i] = seg.Label
	}
	return labels
}

// Manager holds the active segment list.
type Manager struct {
	mu       sync.RWMutex
	snap     Snapshot
	cfg      Config
	kioskID  string
	client   *http.Client
	onUpdate func(Snapshot)
}

// NewManager creates a campaign manager for the given kiosk.
func NewManager(cfg Config, kioskID string) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Manager{cfg: cfg, kioskID: kioskID}
}

// SetUpdateCallback sets a callback to be called after each reload.
func (m *Manager) SetUpdateCallback(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Snapshot returns the current segment list. The returned slice is never
// modified by later reloads.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Set replaces the segment list. Entries are sorted by segment_order and
// their position in the sorted list becomes the wheel order.
func (m *Manager) Set(name string, version int64, entries []Entry) error {
	segs, err := Sort(entries)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.snap = Snapshot{
		Name:     name,
		Version:  version,
		Revision: m.snap.Revision + 1,
		Segments: segs,
	}
	snap := m.snap
	fn := m.onUpdate
	m.mu.Unlock()

	log.WithFields(log.Fields{
		"campaign": name,
		"version":  version,
		"segments": len(segs),
	}).Info("Campaign: segments loaded")

	if fn != nil {
		fn(snap)
	}
	return nil
}

// Sort orders entries by segment_order and converts them to wheel segments.
func Sort(entries []Entry) ([]wheel.Segment, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SegmentOrder < sorted[j].SegmentOrder
	})

	segs := make([]wheel.Segment, len(sorted))
	for i, e := range sorted {
		if i > 0 && sorted[i-1].SegmentOrder == e.SegmentOrder {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateOrder, e.SegmentOrder)
		}
		segs[i] = wheel.Segment{Order: i, Label: e.Label, Color: e.Color}
	}
	return segs, nil
}

// FetchFromAPI downloads the campaign for this kiosk and rewrites the cache.
func (m *Manager) FetchFromAPI(ctx context.Context) error {
	if m.cfg.URL == "" {
		return ErrNotConfigured
	}

	client, err := m.httpClient()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/kiosks/%s/campaign", m.cfg.URL, m.kioskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if m.cfg.Username != "" {
		req.SetBasicAuth(m.cfg.Username, m.cfg.Password)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch campaign: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}

	if err := m.Set(doc.Campaign, doc.Version, doc.Segments); err != nil {
		return err
	}

	if m.cfg.CacheFile != "" {
		if err := writeCache(m.cfg.CacheFile, doc); err != nil {
			log.Printf("Campaign: could not write cache: %v", err)
		}
	}
	return nil
}

// LoadFromFile loads the cached campaign. A missing file is not an error.
func (m *Manager) LoadFromFile() error {
	if m.cfg.CacheFile == "" {
		return nil
	}
	data, err := os.ReadFile(m.cfg.CacheFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode cache file: %w", err)
	}
	return m.Set(doc.Campaign, doc.Version, doc.Segments)
}

func (m *Manager) httpClient() (*http.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if m.cfg.CAFile != "" {
		caCert, err := os.ReadFile(m.cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(caCert)
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	m.client = &http.Client{Transport: transport, Timeout: m.cfg.Timeout}
	return m.client, nil
}

func writeCache(path string, doc document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}
