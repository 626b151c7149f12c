package regsdk

import (
	"github.com/ledgerwatch/erigon-lib/kv"

	"github.com/0xAtelerix/registry-sdk/regsdk/submitqueue"
)

// Storage holds the initialized databases and storage components. Use the
// accessor methods to get components for custom tooling.
type Storage struct {
	registryDB kv.RwDB
	queueDB    kv.RwDB
	queue      *submitqueue.Queue
}

// NewStorage creates a Storage instance from manually constructed components.
// For standard usage, use Init instead.
func NewStorage(registryDB, queueDB kv.RwDB, queue *submitqueue.Queue) *Storage {
	return &Storage{
		registryDB: registryDB,
		queueDB:    queueDB,
		queue:      queue,
	}
}

// RegistryDB returns the registry state database for custom queries.
func (s *Storage) RegistryDB() kv.RwDB {
	return s.registryDB
}

// Queue returns the transaction submission queue.
func (s *Storage) Queue() *submitqueue.Queue {
	return s.queue
}

// Close releases all resources held by the storage.
func (s *Storage) Close() {
	if s.queueDB != nil {
		s.queueDB.Close()
	}

	if s.registryDB != nil {
		s.registryDB.Close()
	}
}
