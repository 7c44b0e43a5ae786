package store

import (
	"context"
	"sync"
	"time"
)

// NewMockStore returns a Storage backed by shared in-memory state, with the
// same conflict and idempotency semantics as the Postgres stores. Used by
// handler tests.
func NewMockStore() Storage {
	state := &mockState{
		users:       map[int64]*User{},
		plans:       map[string]*Plan{},
		workouts:    map[int64]*WorkoutPlan{},
		orders:      map[string]*Order{},
		memberships: map[int64]*Membership{},
		payments:    map[string]bool{},
		pushTokens:  map[int64][]string{},
	}

	for _, p := range []Plan{
		{ID: "monthly", Name: "Monthly Plan", Price: 999, DurationMonths: 1},
		{ID: "quarterly", Name: "Quarterly Plan", Price: 2499, DurationMonths: 3},
		{ID: "yearly", Name: "Yearly Plan", Price: 7999, DurationMonths: 12},
	} {
		plan := p
		state.plans[plan.ID] = &plan
	}

	return Storage{
		Users:       &MockUsersStore{state},
		Plans:       &MockPlansStore{state},
		Workouts:    &MockWorkoutsStore{state},
		Orders:      &MockOrdersStore{state},
		Memberships: &MockMembershipsStore{state},
		Settlements: &MockSettlementsStore{state},
		PushTokens:  &MockPushTokensStore{state},
	}
}

type mockState struct {
	sync.Mutex
	nextUserID  int64
	users       map[int64]*User
	plans       map[string]*Plan
	workouts    map[int64]*WorkoutPlan
	orders      map[string]*Order
	memberships map[int64]*Membership
	payments    map[string]bool
	pushTokens  map[int64][]string
}

type MockUsersStore struct{ s *mockState }

func (m *MockUsersStore) CreateAndInvite(_ context.Context, user *User, _ string, _ time.Duration) error {
	m.s.Lock()
	defer m.s.Unlock()

	for _, u := range m.s.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	m.s.nextUserID++
	user.ID = m.s.nextUserID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.s.users[user.ID] = user
	return nil
}

func (m *MockUsersStore) Activate(_ context.Context, _ string) error { return nil }

func (m *MockUsersStore) GetByID(_ context.Context, userID int64) (*User, error) {
	m.s.Lock()
	defer m.s.Unlock()

	user, ok := m.s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MockUsersStore) GetByEmail(_ context.Context, email string) (*User, error) {
	m.s.Lock()
	defer m.s.Unlock()

	for _, u := range m.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockUsersStore) Update(_ context.Context, user *User) error {
	m.s.Lock()
	defer m.s.Unlock()

	if _, ok := m.s.users[user.ID]; !ok {
		return ErrNotFound
	}
	m.s.users[user.ID] = user
	return nil
}

func (m *MockUsersStore) SetProfile(_ context.Context, pictureURL string, userID int64) error {
	m.s.Lock()
	defer m.s.Unlock()

	user, ok := m.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.ProfilePictureURL = &pictureURL
	return nil
}

func (m *MockUsersStore) Delete(_ context.Context, userID int64) error {
	m.s.Lock()
	defer m.s.Unlock()

	delete(m.s.users, userID)
	return nil
}

func (m *MockUsersStore) SaveRefreshToken(_ context.Context, userID int64, token string) error {
	m.s.Lock()
	defer m.s.Unlock()

	if user, ok := m.s.users[userID]; ok {
		user.RefreshToken = token
	}
	return nil
}

func (m *MockUsersStore) GetRefreshToken(_ context.Context, userID int64) (string, error) {
	m.s.Lock()
	defer m.s.Unlock()

	user, ok := m.s.users[userID]
	if !ok {
		return "", ErrNotFound
	}
	return user.RefreshToken, nil
}

func (m *MockUsersStore) DeleteRefreshToken(_ context.Context, userID int64) error {
	m.s.Lock()
	defer m.s.Unlock()

	if user, ok := m.s.users[userID]; ok {
		user.RefreshToken = ""
	}
	return nil
}

type MockPlansStore struct{ s *mockState }

func (m *MockPlansStore) List(_ context.Context) ([]Plan, error) {
	m.s.Lock()
	defer m.s.Unlock()

	var plans []Plan
	for _, p := range m.s.plans {
		plans = append(plans, *p)
	}
	return plans, nil
}

func (m *MockPlansStore) GetByID(_ context.Context, planID string) (*Plan, error) {
	m.s.Lock()
	defer m.s.Unlock()

	plan, ok := m.s.plans[planID]
	if !ok {
		return nil, ErrNotFound
	}
	return plan, nil
}

type MockWorkoutsStore struct{ s *mockState }

func (m *MockWorkoutsStore) List(_ context.Context, filter WorkoutFilter) ([]WorkoutPlan, error) {
	m.s.Lock()
	defer m.s.Unlock()

	var workouts []WorkoutPlan
	for _, w := range m.s.workouts {
		if filter.MuscleGroup != "" && w.MuscleGroup != filter.MuscleGroup {
			continue
		}
		if filter.Level != "" && w.Level != filter.Level {
			continue
		}
		workouts = append(workouts, *w)
	}
	return workouts, nil
}

func (m *MockWorkoutsStore) GetByID(_ context.Context, workoutID int64) (*WorkoutPlan, error) {
	m.s.Lock()
	defer m.s.Unlock()

	workout, ok := m.s.workouts[workoutID]
	if !ok {
		return nil, ErrNotFound
	}
	return workout, nil
}

type MockOrdersStore struct{ s *mockState }

func (m *MockOrdersStore) Create(_ context.Context, order *Order) error {
	m.s.Lock()
	defer m.s.Unlock()

	if _, ok := m.s.orders[order.GatewayOrderID]; ok {
		return ErrConflict
	}
	order.ID = int64(len(m.s.orders) + 1)
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	m.s.orders[order.GatewayOrderID] = order
	return nil
}

func (m *MockOrdersStore) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*Order, error) {
	m.s.Lock()
	defer m.s.Unlock()

	order, ok := m.s.orders[gatewayOrderID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrdersStore) MarkFailed(_ context.Context, gatewayOrderID, reason string) error {
	m.s.Lock()
	defer m.s.Unlock()

	order, ok := m.s.orders[gatewayOrderID]
	if !ok || order.Status != OrderCreated {
		return ErrNotFound
	}
	order.Status = OrderFailed
	order.FailureReason = &reason
	order.UpdatedAt = time.Now()
	return nil
}

func (m *MockOrdersStore) ListByUser(_ context.Context, userID int64, _, _ int) ([]Order, error) {
	m.s.Lock()
	defer m.s.Unlock()

	var orders []Order
	for _, o := range m.s.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

type MockMembershipsStore struct{ s *mockState }

func (m *MockMembershipsStore) GetByUserID(_ context.Context, userID int64) (*Membership, error) {
	m.s.Lock()
	defer m.s.Unlock()

	membership, ok := m.s.memberships[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *membership
	return &copied, nil
}

type MockSettlementsStore struct{ s *mockState }

func (m *MockSettlementsStore) Settle(_ context.Context, params SettleParams) (*SettleResult, error) {
	m.s.Lock()
	defer m.s.Unlock()

	if m.s.payments[params.GatewayPaymentID] {
		return &SettleResult{AlreadyProcessed: true}, nil
	}

	order, ok := m.s.orders[params.GatewayOrderID]
	if !ok || order.Status != OrderCreated {
		return nil, ErrNotFound
	}

	m.s.payments[params.GatewayPaymentID] = true
	order.Status = OrderSuccess
	order.GatewayPaymentID = &params.GatewayPaymentID
	order.UpdatedAt = time.Now()

	membership := &Membership{
		UserID:        params.UserID,
		PlanID:        params.PlanID,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		Active:        true,
		LastPaymentID: params.GatewayPaymentID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	m.s.memberships[params.UserID] = membership

	copied := *membership
	return &SettleResult{Membership: &copied}, nil
}

type MockPushTokensStore struct{ s *mockState }

func (m *MockPushTokensStore) AddOrUpdate(_ context.Context, userID int64, token string) error {
	m.s.Lock()
	defer m.s.Unlock()

	for _, t := range m.s.pushTokens[userID] {
		if t == token {
			return nil
		}
	}
	m.s.pushTokens[userID] = append(m.s.pushTokens[userID], token)
	return nil
}

func (m *MockPushTokensStore) Remove(_ context.Context, userID int64, token string) error {
	m.s.Lock()
	defer m.s.Unlock()

	tokens := m.s.pushTokens[userID]
	for i, t := range tokens {
		if t == token {
			m.s.pushTokens[userID] = append(tokens[:i], tokens[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockPushTokensStore) GetByUserID(_ context.Context, userID int64) ([]string, error) {
	m.s.Lock()
	defer m.s.Unlock()

	return append([]string(nil), m.s.pushTokens[userID]...), nil
}
