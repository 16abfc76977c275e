package models

import "time"

// ModelListCache is one cached provider model listing, keyed by provider
// id plus a short API-key prefix. Rows are pure cache and safe to evict
// at any time.
type ModelListCache struct {
	Key        string `gorm:"primaryKey"`
	ProviderID string
	FetchedAt  time.Time
	ModelsJSON string
}
