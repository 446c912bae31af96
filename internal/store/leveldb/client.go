// internal/store/leveldb/client.go
package leveldb

import (
	"context"
	"fmt"
	"sync"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Client persists the task record in a local LevelDB database. This is
// the default store: a single keyed document, no schema, survives
// restarts.
type Client struct {
	db    *leveldb.DB
	mutex sync.RWMutex
}

func NewClient(cfg config.StoreConfig) (*Client, error) {
	opts := &opt.Options{
		CompactionTableSize: 2 * 1024 * 1024, // 2MB
		WriteBuffer:         1 * 1024 * 1024, // 1MB
	}

	db, err := leveldb.OpenFile(cfg.LevelDBPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Load returns the stored record, or schema defaults if none exists
func (c *Client) Load(ctx context.Context) (*models.TaskRecord, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, err := c.db.Get([]byte(store.RecordKey), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return models.NewTaskRecord(), nil
		}
		return nil, err
	}

	record := models.NewTaskRecord()
	if err := record.FromJSON(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task record: %w", err)
	}
	return record, nil
}

// Save overwrites the stored record
func (c *Client) Save(ctx context.Context, record *models.TaskRecord) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	data, err := record.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal task record: %w", err)
	}

	return c.db.Put([]byte(store.RecordKey), data, nil)
}
