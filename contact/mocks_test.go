package contact

import (
	"errors"
	"sync"

	"github.com/opd-ai/peerlink/kvstore"
)

var errStoreDown = errors.New("store down")

// recordingStore wraps an in-memory store and counts writes. When failPut is
// set every Put fails.
type recordingStore struct {
	mu      sync.Mutex
	inner   *kvstore.Memory
	puts    int
	failPut bool
	failGet error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{inner: kvstore.NewMemory()}
}

func (r *recordingStore) Get(key string) ([]byte, error) {
	if r.failGet != nil {
		return nil, r.failGet
	}
	return r.inner.Get(key)
}

func (r *recordingStore) Put(key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts++
	if r.failPut {
		return errStoreDown
	}
	return r.inner.Put(key, value)
}

func (r *recordingStore) Delete(key string) error { return r.inner.Delete(key) }
func (r *recordingStore) Close() error            { return nil }

func (r *recordingStore) putCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

func peerIDs(contacts []Contact) []string {
	ids := make([]string, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.PeerID)
	}
	return ids
}
