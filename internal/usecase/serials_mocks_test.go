package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"serial-codegen/internal/domain"
	"serial-codegen/internal/domain/model"
	"serial-codegen/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
)

// memSerialRepo is a small in-memory serial_numbers table used by unit tests.
type memSerialRepo struct {
	mu     sync.Mutex
	rows   map[string]*model.SerialNumber
	nextID int64

	insertErr error // used by tests to simulate insert failures
	lastTx    repository.Tx
}

var _ repository.SerialNumberRepository = (*memSerialRepo)(nil)

func newMemSerialRepo(existing ...string) *memSerialRepo {
	m := &memSerialRepo{rows: make(map[string]*model.SerialNumber)}
	_, _ = m.InsertBatch(context.Background(), nil, existing)
	return m
}

func (m *memSerialRepo) InsertBatch(ctx context.Context, tx repository.Tx, codes []string) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTx = tx
	n := 0
	for _, c := range codes {
		if _, ok := m.rows[c]; ok {
			continue
		}
		m.nextID++
		m.rows[c] = &model.SerialNumber{
			ID:           m.nextID,
			SerialNumber: c,
			Status:       model.SerialUnused,
			CreatedAt:    time.Unix(m.nextID, 0),
		}
		n++
	}
	return n, nil
}

func (m *memSerialRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.SerialNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTx = tx
	sn, ok := m.rows[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	cp := *sn
	return &cp, nil
}

func (m *memSerialRepo) MarkUsed(ctx context.Context, tx repository.Tx, sn *model.SerialNumber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[sn.SerialNumber]
	if !ok || cur.ID != sn.ID {
		return domain.ErrCodeNotFound
	}
	cp := *sn
	m.rows[sn.SerialNumber] = &cp
	return nil
}

func (m *memSerialRepo) ListLatest(ctx context.Context, tx repository.Tx, limit int) ([]*model.SerialNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SerialNumber, 0, len(m.rows))
	for _, sn := range m.rows {
		cp := *sn
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSerialRepo) Stats(ctx context.Context, tx repository.Tx) (model.SerialStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st model.SerialStats
	for _, sn := range m.rows {
		st.Total++
		if sn.IsUsed() {
			st.Used++
		} else {
			st.Unused++
		}
	}
	return st, nil
}

func (m *memSerialRepo) get(code string) *model.SerialNumber {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[code]
}

// fakeTxManager runs fn inline with a sentinel tx handle.
type fakeTxManager struct {
	calls int
}

type fakeTx struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	f.calls++
	return fn(ctx, fakeTx{})
}

// fakeLocker records lock traffic; TryLockFunc overrides the default success.
type fakeLocker struct {
	mu          sync.Mutex
	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
	locked      []string
	unlocked    []string
	lastTTL     time.Duration
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTTL = ttl
	if f.TryLockFunc != nil {
		return f.TryLockFunc(ctx, key, ttl)
	}
	f.locked = append(f.locked, key)
	return "token-" + key, nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlocked = append(f.unlocked, key+"|"+token)
	return nil
}

// fakeRecorder captures metric calls made by the use cases.
type fakeRecorder struct {
	generated, shortfall, attempts int
	inserted, skipped              int
	redeems                        []string
}

var _ Recorder = (*fakeRecorder)(nil)

func (f *fakeRecorder) ObserveGeneration(produced, shortfall, attempts int) {
	f.generated += produced
	f.shortfall += shortfall
	f.attempts += attempts
}

func (f *fakeRecorder) AddInserted(inserted, skipped int) {
	f.inserted += inserted
	f.skipped += skipped
}

func (f *fakeRecorder) IncRedeem(result string) { f.redeems = append(f.redeems, result) }
