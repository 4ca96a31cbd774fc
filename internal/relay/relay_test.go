package relay

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakeStore is an in-memory ObjectStore for tests.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]Object

	listErr   error
	putErr    error
	deleteErr map[string]error // per-key delete failures

	// defaultPutSize is the size the store reports for uploaded objects;
	// deliberately independent of the local artifact, since the store is
	// the source of truth.
	defaultPutSize int64

	listCalls    int
	putCalls     int
	presignCalls []time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]Object), deleteErr: make(map[string]error)}
}

func (f *fakeStore) add(key string, size int64, lastModified time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = Object{Key: key, Size: size, LastModified: lastModified}
}

func (f *fakeStore) List(_ context.Context, prefix string) ([]Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Object
	for key, obj := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeStore) Put(_ context.Context, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = Object{Key: key, Size: f.defaultPutSize, LastModified: time.Now()}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[key]; err != nil {
		return err
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) DeleteAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := len(f.objects)
	f.objects = make(map[string]Object)
	return count, nil
}

func (f *fakeStore) PresignedURL(_ context.Context, key string, expiresIn time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presignCalls = append(f.presignCalls, expiresIn)
	return fmt.Sprintf("https://signed.example.com/%s?expires=%d", EncodeKey(key), int64(expiresIn.Seconds())), nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}
