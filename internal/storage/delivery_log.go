// Package storage records which briefings were already delivered so that
// overlapping triggers (cron firing while an HTTP trigger runs, Cloud
// Scheduler retries) never double-post the same content to a webhook.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DeliveryLog is implemented by the file and Postgres backends.
type DeliveryLog interface {
	IsDelivered(hash string) bool
	MarkDelivered(hash, channel, preview string) error
	Close() error
}

// BriefingHash produces a stable key for a briefing's content. Whitespace
// is collapsed first so cosmetic re-rendering does not defeat the log.
func BriefingHash(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	h := sha256.New()
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// previewOf trims content to a short audit string stored beside the hash.
func previewOf(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > 120 {
		return content[:120]
	}
	return content
}
