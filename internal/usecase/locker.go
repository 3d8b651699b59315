package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// cartLocker はカートIDごとの排他。
// 同一カートへの変更（update / delete）を同時に1つへ直列化する。
// Acquireはctxのデッドラインで打ち切れるのでデッドロックしない。
type cartLocker struct {
	mu   sync.Mutex
	sems map[int64]*semaphore.Weighted
}

func newCartLocker() *cartLocker {
	return &cartLocker{sems: make(map[int64]*semaphore.Weighted)}
}

func (l *cartLocker) Acquire(ctx context.Context, cartID int64) (func(), error) {
	l.mu.Lock()
	s, ok := l.sems[cartID]
	if !ok {
		s = semaphore.NewWeighted(1)
		l.sems[cartID] = s
	}
	l.mu.Unlock()

	if err := s.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.Release(1) }, nil
}
