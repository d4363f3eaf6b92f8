// Package session holds each reflection session's transaction set in
// memory. Sessions are the only state in the system: nothing survives
// their TTL, and no state is shared between them.
package session

import (
	"container/list"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"losslens/internal/core"
)

var (
	ErrNotFound   = errors.New("session not found or expired")
	ErrIndexRange = errors.New("transaction index out of range")
)

// Session is one user's uploaded transaction set.
type Session struct {
	ID        string
	CreatedAt time.Time

	txns []core.Transaction
}

// Store keeps sessions with TTL expiry and LRU eviction so an
// abandoned browser tab cannot pin memory forever.
type Store struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type entry struct {
	session   *Session
	expiresAt time.Time
}

func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Create registers a new session holding the given transactions.
func (s *Store) Create(txns []core.Transaction) *Session {
	sess := &Session{
		ID:        newSessionID(),
		CreatedAt: time.Now(),
		txns:      append([]core.Transaction(nil), txns...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	elem := s.lru.PushFront(&entry{session: sess, expiresAt: time.Now().Add(s.ttl)})
	s.items[sess.ID] = elem

	if s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
	return sess
}

// Snapshot returns a defensive copy of the session's transactions in
// ingestion order.
func (s *Store) Snapshot(id string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(e.session.txns))
	copy(out, e.session.txns)
	return out, nil
}

// Rate sets the happiness score on one transaction, recomputing its
// regret score through the domain invariant.
func (s *Store) Rate(id string, index, happiness int) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return core.Transaction{}, err
	}
	if index < 0 || index >= len(e.session.txns) {
		return core.Transaction{}, fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	if err := e.session.txns[index].Rate(happiness); err != nil {
		return core.Transaction{}, err
	}
	return e.session.txns[index], nil
}

// SetCategories overwrites the category of each transaction by index.
// Used after categorization, which runs outside the store lock.
func (s *Store) SetCategories(id string, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	if len(categories) != len(e.session.txns) {
		return fmt.Errorf("category count %d does not match %d transactions",
			len(categories), len(e.session.txns))
	}
	for i, cat := range categories {
		e.session.txns[i].Category = cat
	}
	return nil
}

// Delete removes a session immediately.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.items[id]; ok {
		s.removeElement(elem)
	}
}

// Size returns the number of live sessions.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// CleanExpired removes every expired session and reports how many.
// Satisfies the Manager's Cleaner contract.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		s.removeElement(elem)
	}
	return len(toRemove)
}

// lookup finds a live session, refreshing its TTL and LRU position.
// Caller holds the lock.
func (s *Store) lookup(id string) (*entry, error) {
	elem, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	e := elem.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		s.removeElement(elem)
		return nil, ErrNotFound
	}
	e.expiresAt = time.Now().Add(s.ttl)
	s.lru.MoveToFront(elem)
	return e, nil
}

func (s *Store) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(s.items, e.session.ID)
	s.lru.Remove(elem)
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("sess_%d", time.Now().UnixNano())
	}
	return "sess_" + hex.EncodeToString(b)
}
