package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/citychat/pkg/adapters/memory"
	"github.com/aretw0/citychat/pkg/domain"
	"github.com/aretw0/citychat/pkg/ports"
	"github.com/aretw0/citychat/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	loads atomic.Int32
}

func (s *SlowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.loads.Add(1)
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s *SlowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, sess)
}

func start(id string) func(context.Context) *domain.Session {
	return func(context.Context) *domain.Session {
		return domain.NewSession(id, "Root")
	}
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := manager.LoadOrStart(ctx, id, start(id))
			assert.NoError(t, err)
			assert.NotNil(t, s)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Root", s.CurrentNode)
}

func TestManager_UpdateSerializesSubmissions(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "counter"
	_, err := manager.LoadOrStart(ctx, id, start(id))
	require.NoError(t, err)

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(_ context.Context, s *domain.Session) (*domain.Session, error) {
				next := s.Clone()
				next.Generation++
				next.Messages = append(next.Messages, domain.Message{Text: "x", Sender: domain.SenderUser})
				return next, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(writers), s.Generation)
	assert.Len(t, s.Messages, writers, "no update may be lost")
}

func TestManager_CommitRejectsStaleGeneration(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	id := "stale"
	base, err := manager.LoadOrStart(ctx, id, start(id))
	require.NoError(t, err)

	first := base.Clone()
	first.Generation++
	first.CurrentNode = "BuildingNode"
	require.NoError(t, manager.Commit(ctx, first))

	// A second result computed from the same base arrives late.
	late := base.Clone()
	late.Generation++
	late.CurrentNode = "VerticalNode"
	err = manager.Commit(ctx, late)
	assert.ErrorIs(t, err, domain.ErrStaleSession)

	s, _ := manager.Load(ctx, id)
	assert.Equal(t, "BuildingNode", s.CurrentNode)
}

func TestManager_UpdatePropagatesErrors(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Update(ctx, "missing", func(_ context.Context, s *domain.Session) (*domain.Session, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = manager.LoadOrStart(ctx, "x", start("x"))
	require.NoError(t, err)
	boom := errors.New("boom")
	_, err = manager.Update(ctx, "x", func(context.Context, *domain.Session) (*domain.Session, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

// countingLocker records distributed lock usage.
type countingLocker struct {
	locks, unlocks atomic.Int32
	ttl            time.Duration
}

func (l *countingLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.locks.Add(1)
	l.ttl = ttl
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	_, err := manager.LoadOrStart(ctx, "d", start("d"))
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "d"))

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())
	assert.Equal(t, 5*time.Second, locker.ttl)
}
