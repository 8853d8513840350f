package birdbase

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"git.mills.io/prologic/bitcask"
)

var (
	// ErrNotFound is returned when a key is absent or expired.
	ErrNotFound = errors.New("record not found")
	ErrClosed   = errors.New("store is not open")
)

// Put stores value under name. ttlHours of 0 or less keeps it forever.
func Put(name string, value []byte, ttlHours int) error {
	packed, err := pack(value)
	if err != nil {
		return fmt.Errorf("failed to compress %s: %w", name, err)
	}

	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		return ErrClosed
	}
	if ttlHours <= 0 {
		return db.Put(CacheKey(name), packed)
	}
	return db.PutWithTTL(CacheKey(name), packed, time.Duration(ttlHours)*time.Hour)
}

func Get(name string) ([]byte, error) {
	mu.RLock()
	if db == nil {
		mu.RUnlock()
		return nil, ErrClosed
	}
	packed, err := db.Get(CacheKey(name))
	mu.RUnlock()

	if errors.Is(err, bitcask.ErrKeyNotFound) || errors.Is(err, bitcask.ErrKeyExpired) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return unpack(packed)
}

func Has(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return db != nil && db.Has(CacheKey(name))
}

func Delete(name string) error {
	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		return ErrClosed
	}
	return db.Delete(CacheKey(name))
}

// PutJSON stores value as JSON. ttlHours of 0 or less keeps it forever.
func PutJSON(name string, value any, ttlHours int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return Put(name, data, ttlHours)
}

// GetJSON decodes the record stored under name into out.
func GetJSON(name string, out any) error {
	data, err := Get(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}
