package models

// StoreEntry is one key of the local key/value store.
type StoreEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"type:text"`
}
