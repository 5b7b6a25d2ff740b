package tree

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

/*
Store is an interface to manage a store
where trees can be created, retrieved, updated
and deleted.

All it methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type Store interface {
	// Create takes a tree and stores it for the
	// first time in the store, returning the ID
	// created for it, or an error if the tree
	// cannot be stored.
	Create(ctx context.Context, t *Tree) (string, error)
	// Get takes an id and returns the tree in the
	// store with that id (or nil if it cannot be
	// found) or an error if the store cannot be
	// queried
	Get(ctx context.Context, id string) (*Tree, error)
	// Store takes an id and a tree and stores the
	// tree under the id, replacing any tree stored
	// with it before. It returns an error if the
	// tree cannot be stored.
	Store(ctx context.Context, id string, t *Tree) error
	// Delete takes an id and deletes the tree stored
	// with it. It returns an error if the tree exists
	// but the deletion cannot be performed.
	Delete(ctx context.Context, id string) error
	// Close closes the store, implementations should
	// free any resources in use before returning
	// (unless the context expires).
	Close(ctx context.Context) error
}

type memoryStore struct {
	trees map[string]*Tree
	lock  *sync.RWMutex
}

// NewMemoryStore returns an implementation
// of Store with the process memory space
// as underlying backend
func NewMemoryStore() Store {
	return &memoryStore{
		trees: make(map[string]*Tree),
		lock:  &sync.RWMutex{},
	}
}

func (ms *memoryStore) Create(ctx context.Context, t *Tree) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	id := uuid.NewString()
	for _, taken := ms.trees[id]; taken; _, taken = ms.trees[id] {
		id = uuid.NewString()
	}
	ms.trees[id] = t
	return id, nil
}

func (ms *memoryStore) Get(ctx context.Context, id string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms.lock.RLock()
	defer ms.lock.RUnlock()
	return ms.trees[id], nil
}

func (ms *memoryStore) Store(ctx context.Context, id string, t *Tree) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	ms.trees[id] = t
	return nil
}

func (ms *memoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	delete(ms.trees, id)
	return nil
}

func (ms *memoryStore) Close(ctx context.Context) error {
	return nil
}
