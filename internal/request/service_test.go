package request_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/core/events"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
	"github.com/frahmantamala/smartwork/internal/request"
)

func TestRequest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Request Service Suite")
}

type mockRequestRepository struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*request.Request
	writes   int
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{requests: make(map[int64]*request.Request)}
}

func (m *mockRequestRepository) Create(ctx context.Context, r *request.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.requests[r.ID] = &cp
	m.writes++
	return nil
}

func (m *mockRequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, internal.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepository) sorted(keep func(*request.Request) bool) []*request.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*request.Request
	for _, r := range m.requests {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m *mockRequestRepository) ListAll(ctx context.Context) ([]*request.Request, error) {
	return m.sorted(func(*request.Request) bool { return true }), nil
}

func (m *mockRequestRepository) ListByEmployee(ctx context.Context, username string) ([]*request.Request, error) {
	return m.sorted(func(r *request.Request) bool { return r.EmployeeUsername == username }), nil
}

func (m *mockRequestRepository) Decide(ctx context.Context, id int64, status, decidedBy string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != request.StatusPending {
		return false, nil
	}
	r.Status = status
	r.DecisionBy = &decidedBy
	r.DecisionAt = &at
	m.writes++
	return true, nil
}

func (m *mockRequestRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return internal.ErrRequestNotFound
	}
	delete(m.requests, id)
	m.writes++
	return nil
}

type mockUsers map[string]*coreuser.User

func (m mockUsers) GetByUsername(ctx context.Context, username string) (*coreuser.User, error) {
	if u, ok := m[username]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ = Describe("Request Service", func() {
	var (
		repo      *mockRequestRepository
		publisher *recordingPublisher
		svc       *request.Service
		ctx       context.Context
		alice     *coreuser.User
		carl      *coreuser.User
		admin     *coreuser.User
		decidedAt time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		alice = &coreuser.User{Username: "alice", DisplayName: "Alice Rossi", Email: "alice@x.com", Role: coreuser.RoleEmployee}
		carl = &coreuser.User{Username: "carl", Role: coreuser.RoleEmployee}
		admin = &coreuser.User{Username: "admin", Email: "admin@x.com", Role: coreuser.RoleAdmin}
		decidedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

		repo = newMockRequestRepository()
		publisher = &recordingPublisher{}
		users := mockUsers{"alice": alice, "carl": carl, "admin": admin}
		svc = request.NewService(repo, users, publisher, slog.New(slog.NewTextHandler(io.Discard, nil))).
			WithClock(func() time.Time { return decidedAt })
	})

	Describe("Create", func() {
		It("stores a pending request at UTC midnight with a name snapshot", func() {
			r, err := svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-10"})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).To(Equal(int64(1)))
			Expect(r.Status).To(Equal(request.StatusPending))
			Expect(r.EmployeeName).To(Equal("Alice Rossi"))
			Expect(r.Date).To(Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

			created := publisher.ofType(events.EventTypeRequestCreated)
			Expect(created).To(HaveLen(1))
			e := created[0].(*events.RequestCreatedEvent)
			Expect(e.When).To(Equal("2025-03-10"))
			Expect(e.Kind).To(Equal(events.KindSingle))
		})

		It("falls back to the username when there is no display name", func() {
			r, err := svc.Create(ctx, carl, request.CreateRequestDTO{Date: "2025-03-11T15:04:05Z"})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.EmployeeName).To(Equal("carl"))
			Expect(r.Day()).To(Equal("2025-03-11"))
		})

		DescribeTable("rejects bad dates before writing",
			func(date string) {
				_, err := svc.Create(ctx, alice, request.CreateRequestDTO{Date: date})
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
				Expect(repo.writes).To(BeZero())
				Expect(publisher.events).To(BeEmpty())
			},
			Entry("empty", ""),
			Entry("garbage", "next monday"),
			Entry("day first", "10/03/2025"),
		)
	})

	Describe("SetDecision", func() {
		It("returns not found without writing", func() {
			_, err := svc.SetDecision(ctx, 42, true, "admin")
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
			Expect(repo.writes).To(BeZero())
			Expect(publisher.ofType(events.EventTypeRequestDecided)).To(BeEmpty())
		})

		It("approves and notifies the employee", func() {
			r, err := svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-10"})
			Expect(err).NotTo(HaveOccurred())

			decided, err := svc.SetDecision(ctx, r.ID, true, "admin")
			Expect(err).NotTo(HaveOccurred())
			Expect(decided.Status).To(Equal(request.StatusApproved))
			Expect(*decided.DecisionBy).To(Equal("admin"))
			Expect(*decided.DecisionAt).To(Equal(decidedAt))

			stored, _ := repo.GetByID(ctx, r.ID)
			Expect(stored.Status).To(Equal(request.StatusApproved))

			decisions := publisher.ofType(events.EventTypeRequestDecided)
			Expect(decisions).To(HaveLen(1))
			e := decisions[0].(*events.RequestDecidedEvent)
			Expect(e.EmployeeEmail).To(Equal("alice@x.com"))
			Expect(e.Approved).To(BeTrue())
			Expect(e.DecidedBy).To(Equal("admin"))
			Expect(e.When).To(Equal("2025-03-10"))
		})

		It("rejects", func() {
			r, _ := svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-10"})

			decided, err := svc.SetDecision(ctx, r.ID, false, "admin")
			Expect(err).NotTo(HaveOccurred())
			Expect(decided.Status).To(Equal(request.StatusRejected))
		})

		It("refuses a second decision", func() {
			r, _ := svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-10"})
			_, err := svc.SetDecision(ctx, r.ID, true, "admin")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.SetDecision(ctx, r.ID, false, "admin")
			Expect(err).To(MatchError(internal.ErrRequestAlreadyDecided))

			stored, _ := repo.GetByID(ctx, r.ID)
			Expect(stored.Status).To(Equal(request.StatusApproved))
		})

		It("lets exactly one of many concurrent decisions win", func() {
			r, _ := svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-10"})

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(approve bool) {
					defer GinkgoRecover()
					defer wg.Done()
					if _, err := svc.SetDecision(ctx, r.ID, approve, "admin"); err == nil {
						mu.Lock()
						wins++
						mu.Unlock()
					} else {
						Expect(err).To(MatchError(internal.ErrRequestAlreadyDecided))
					}
				}(i%2 == 0)
			}
			wg.Wait()
			Expect(wins).To(Equal(1))
		})

		It("still decides when the employee has no email", func() {
			r, _ := svc.Create(ctx, carl, request.CreateRequestDTO{Date: "2025-03-12"})

			_, err := svc.SetDecision(ctx, r.ID, true, "admin")
			Expect(err).NotTo(HaveOccurred())
			decisions := publisher.ofType(events.EventTypeRequestDecided)
			Expect(decisions).To(HaveLen(1))
			Expect(decisions[0].(*events.RequestDecidedEvent).EmployeeEmail).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		var r *request.Request

		BeforeEach(func() {
			var err error
			r, err = svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-10"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets the owner delete", func() {
			Expect(svc.Delete(ctx, alice, r.ID)).To(Succeed())
			_, err := repo.GetByID(ctx, r.ID)
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})

		It("lets an admin delete", func() {
			Expect(svc.Delete(ctx, admin, r.ID)).To(Succeed())
		})

		It("forbids other employees", func() {
			Expect(svc.Delete(ctx, carl, r.ID)).To(MatchError(internal.ErrNotRequestOwner))
			_, err := repo.GetByID(ctx, r.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports unknown ids", func() {
			Expect(svc.Delete(ctx, admin, 999)).To(MatchError(internal.ErrRequestNotFound))
		})
	})

	Describe("Listing", func() {
		It("orders by date and filters by employee", func() {
			_, _ = svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-12"})
			_, _ = svc.Create(ctx, carl, request.CreateRequestDTO{Date: "2025-03-11"})
			_, _ = svc.Create(ctx, alice, request.CreateRequestDTO{Date: "2025-03-10"})

			all, err := svc.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0].Day()).To(Equal("2025-03-10"))
			Expect(all[2].Day()).To(Equal("2025-03-12"))

			mine, err := svc.ListMine(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))
			for _, m := range mine {
				Expect(m.EmployeeUsername).To(Equal("alice"))
			}
		})
	})
})
