// Package queue defines the sync events exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// SyncQueueName is the durable queue every sync event is routed to.
const SyncQueueName = "tricket.sync"

// Event types carried in the Type field so one queue can hold both kinds.
const (
	TypeProductionsSynced = "productions.synced"
	TypeCacheCleared      = "cache.cleared"
)

// ProductionsSyncedEvent is published after a successful remote fetch has
// been parsed and stored in the cache.
type ProductionsSyncedEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Productions int    `json:"productions"`
	Screenings  int    `json:"screenings"`
	SyncedAt    string `json:"synced_at"`
}

// CacheClearedEvent is published when an administrator drops the cached
// production list.
type CacheClearedEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	ClearedBy string `json:"cleared_by"`
	ClearedAt string `json:"cleared_at"`
}

// NewProductionsSynced stamps a ProductionsSyncedEvent with a fresh id.
func NewProductionsSynced(productions, screenings int, at time.Time) ProductionsSyncedEvent {
	return ProductionsSyncedEvent{
		ID:          uuid.NewString(),
		Type:        TypeProductionsSynced,
		Productions: productions,
		Screenings:  screenings,
		SyncedAt:    at.UTC().Format(time.RFC3339),
	}
}

// NewCacheCleared stamps a CacheClearedEvent with a fresh id.
func NewCacheCleared(key, clearedBy string, at time.Time) CacheClearedEvent {
	return CacheClearedEvent{
		ID:        uuid.NewString(),
		Type:      TypeCacheCleared,
		Key:       key,
		ClearedBy: clearedBy,
		ClearedAt: at.UTC().Format(time.RFC3339),
	}
}
