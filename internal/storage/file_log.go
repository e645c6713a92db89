package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// DeliveredBriefing is one entry in the JSON-backed delivery log.
type DeliveredBriefing struct {
	Hash    string    `json:"hash"`
	Channel string    `json:"channel"`
	Preview string    `json:"preview"`
	SentAt  time.Time `json:"sent_at"`
}

// FileLog keeps delivered briefing hashes in a JSON file. Entries older
// than the TTL are dropped on load and on save.
type FileLog struct {
	filePath string
	ttlHours int
	entries  map[string]DeliveredBriefing
	mu       sync.RWMutex
}

func NewFileLog(filePath string, ttlHours int) *FileLog {
	return &FileLog{
		filePath: filePath,
		ttlHours: ttlHours,
		entries:  make(map[string]DeliveredBriefing),
	}
}

// Load reads the existing log, filtering expired entries. A missing file
// starts an empty log.
func (fl *FileLog) Load() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	data, err := os.ReadFile(fl.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read delivery log: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []DeliveredBriefing
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to unmarshal delivery log: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(fl.ttlHours) * time.Hour)
	for _, e := range entries {
		if e.SentAt.After(cutoff) {
			fl.entries[e.Hash] = e
		}
	}
	return nil
}

func (fl *FileLog) save() error {
	cutoff := time.Now().Add(-time.Duration(fl.ttlHours) * time.Hour)
	entries := make([]DeliveredBriefing, 0, len(fl.entries))
	for hash, e := range fl.entries {
		if e.SentAt.Before(cutoff) {
			delete(fl.entries, hash)
			continue
		}
		entries = append(entries, e)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal delivery log: %w", err)
	}
	if err := os.WriteFile(fl.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write delivery log: %w", err)
	}
	return nil
}

func (fl *FileLog) IsDelivered(hash string) bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()

	e, exists := fl.entries[hash]
	if !exists {
		return false
	}
	cutoff := time.Now().Add(-time.Duration(fl.ttlHours) * time.Hour)
	return e.SentAt.After(cutoff)
}

func (fl *FileLog) MarkDelivered(hash, channel, preview string) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	fl.entries[hash] = DeliveredBriefing{
		Hash:    hash,
		Channel: channel,
		Preview: previewOf(preview),
		SentAt:  time.Now(),
	}
	return fl.save()
}

func (fl *FileLog) Close() error {
	return nil
}
