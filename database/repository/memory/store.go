// Package memory is an in-process document store used for local development
// (DATABASE_DRIVER=memory) and service tests. Transactions are serialised and
// rolled back from a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"

	"bloodsync/models"
)

type txKey struct{}

// Store holds every collection. It satisfies database.Transactor.
type Store struct {
	// txMu serialises transactions and standalone writes.
	txMu sync.Mutex
	mu   sync.RWMutex

	users         map[string]models.Person
	requests      map[string]models.BloodRequest
	offers        map[string]models.Offer
	donations     map[string]models.Donation
	notifications map[string]models.Notification
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]models.Person),
		requests:      make(map[string]models.BloodRequest),
		offers:        make(map[string]models.Offer),
		donations:     make(map[string]models.Donation),
		notifications: make(map[string]models.Notification),
	}
}

type snapshot struct {
	users         map[string]models.Person
	requests      map[string]models.BloodRequest
	offers        map[string]models.Offer
	donations     map[string]models.Donation
	notifications map[string]models.Notification
}

// WithTransaction runs fn with exclusive write access and restores the prior
// state if fn fails. Nested calls join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lockWrite takes the locks a write needs and returns the matching unlock.
func (s *Store) lockWrite(ctx context.Context) func() {
	if s.inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:         cloneMap(s.users),
		requests:      cloneMap(s.requests),
		offers:        cloneMap(s.offers),
		donations:     cloneMap(s.donations),
		notifications: cloneMap(s.notifications),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.requests = snap.requests
	s.offers = snap.offers
	s.donations = snap.donations
	s.notifications = snap.notifications
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// collect returns the values matching keep, ordered by less with id as tiebreak.
func collect[V any](m map[string]V, keep func(V) bool, less func(a, b V) int, id func(V) string) []V {
	var out []V
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := less(out[i], out[j]); c != 0 {
			return c < 0
		}
		return id(out[i]) < id(out[j])
	})
	return out
}
