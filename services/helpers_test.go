package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"collect-the-world-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Stat{},
		&models.WindowedStat{},
		&models.CollectableObject{},
		&models.SkipEntry{},
		&models.Streak{},
		&models.Challenge{},
		&models.CapturedImage{},
		&models.Word{},
		&models.LeaderboardProfile{},
		&models.ChangeEvent{},
	))
	return db
}

// memBlob is an in-memory BlobStore.
type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlob() *memBlob {
	return &memBlob{objects: map[string][]byte{}}
}

func (b *memBlob) Put(key string, body []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = body
	return nil
}

func (b *memBlob) PresignDownload(key string, ttl time.Duration) (string, error) {
	return "https://blob.test/" + key, nil
}

func (b *memBlob) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlob) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}
