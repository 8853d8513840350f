package birdbase

import (
	"fmt"
	"sync"
	"time"

	"dreamlayer/logger"

	"git.mills.io/prologic/bitcask"
)

// defaultMaxValueSize replaces bitcask's 64KB limit; custom workflows can be large.
const defaultMaxValueSize = 10 << 20

var (
	mu sync.RWMutex
	db *bitcask.Bitcask
)

// Init opens the store at path. maxValueSize of 0 keeps a 10MB limit.
func Init(path string, maxValueSize uint64) error {
	if maxValueSize == 0 {
		maxValueSize = defaultMaxValueSize
	}

	opened, err := bitcask.Open(path, bitcask.WithMaxValueSize(maxValueSize))
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}

	mu.Lock()
	db = opened
	mu.Unlock()
	logger.Debug("Opened store", "path", path, "keys", opened.Len())
	return nil
}

// Ready reports whether the store is open.
func Ready() bool {
	mu.RLock()
	defer mu.RUnlock()
	return db != nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// StartMerging reclaims space once a day until done is closed.
func StartMerging(done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := Merge(); err != nil {
					logger.Error("Store merge failed", "error", err)
				}
			}
		}
	}()
}

func Merge() error {
	mu.RLock()
	defer mu.RUnlock()
	if db == nil {
		return ErrClosed
	}

	start := time.Now()
	if err := db.Merge(); err != nil {
		return err
	}
	logger.Info("Store merged", "keys", db.Len(), "took", time.Since(start).Round(time.Millisecond))
	return nil
}
