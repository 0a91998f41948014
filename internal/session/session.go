package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is the explicit per-client context passed to the storefront
// services. It carries the checkout in-progress guard and the id of the
// last successfully created order; cart and coupon state live in the
// persistent slots keyed by the session id.
type Session struct {
	ID        string
	CreatedAt time.Time

	inProgress  atomic.Bool
	mu          sync.Mutex
	lastOrderID uuid.UUID
}

// BeginCheckout flips the in-progress flag. It returns false when another
// checkout attempt is already in flight for this session.
func (s *Session) BeginCheckout() bool {
	return s.inProgress.CompareAndSwap(false, true)
}

// EndCheckout clears the guard. It is called from a deferred cleanup step
// regardless of how the attempt ended.
func (s *Session) EndCheckout() {
	s.inProgress.Store(false)
}

func (s *Session) CheckoutInProgress() bool {
	return s.inProgress.Load()
}

func (s *Session) SetLastOrderID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastOrderID = id
}

func (s *Session) LastOrderID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastOrderID
}

// Manager tracks live sessions in process. Cart snapshots survive restarts
// through the persistent slots, so losing this map only resets checkout
// guards, which is safe.
type Manager struct {
	sessions sync.Map
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) GetOrCreate(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	if existing, ok := m.sessions.Load(id); ok {
		return existing.(*Session)
	}

	sess := &Session{ID: id, CreatedAt: time.Now()}

	actual, _ := m.sessions.LoadOrStore(id, sess)

	return actual.(*Session)
}
