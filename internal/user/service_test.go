package user_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/core/events"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
	"github.com/frahmantamala/smartwork/internal/credential"
	"github.com/frahmantamala/smartwork/internal/user"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

type mockUserRepository struct {
	users       map[string]*coreuser.User
	createError error
	listError   error
}

func newMockUserRepository(users ...*coreuser.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[string]*coreuser.User)}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *mockUserRepository) List(ctx context.Context) ([]*coreuser.User, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]*coreuser.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*coreuser.User, error) {
	if u, ok := m.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUserRepository) Create(ctx context.Context, u *coreuser.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, ok := m.users[u.Username]; ok {
		return internal.ErrUserAlreadyExists
	}
	m.users[u.Username] = u
	return nil
}

func (m *mockUserRepository) UpdateTheme(ctx context.Context, username, theme string) error {
	u, ok := m.users[username]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.Theme = theme
	return nil
}

func (m *mockUserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.IsAdmin() {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepository) DeleteKeepingAdmin(ctx context.Context, username string) (bool, error) {
	u, ok := m.users[username]
	if !ok {
		return false, nil
	}
	if n, _ := m.CountAdmins(ctx); u.IsAdmin() && n <= 1 {
		return false, nil
	}
	delete(m.users, username)
	return true, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

var _ = Describe("User Service", func() {
	var (
		repo      *mockUserRepository
		publisher *recordingPublisher
		svc       *user.Service
		ctx       context.Context
		admin     *coreuser.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		admin = &coreuser.User{Username: "admin", Email: "admin@x.com", Role: coreuser.RoleAdmin, Theme: coreuser.ThemeLight}
		repo = newMockUserRepository(admin)
		publisher = &recordingPublisher{}
		svc = user.NewService(repo, publisher, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Describe("Create", func() {
		It("keeps the user and logs when the created event cannot be published", func() {
			var logs bytes.Buffer
			publisher.err = errors.New("bus closed")
			svc = user.NewService(repo, publisher, 10, slog.New(slog.NewTextHandler(&logs, nil)))

			created, err := svc.Create(ctx, user.CreateUserDTO{Username: "carla", Email: "carla@x.com"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Username).To(Equal("carla"))
			Expect(repo.users).To(HaveKey("carla"))
			Expect(logs.String()).To(ContainSubstring("failed to publish user created event"))
			Expect(logs.String()).To(ContainSubstring("bus closed"))
		})

		It("creates an employee with a forced temporary password and mails it", func() {
			created, err := svc.Create(ctx, user.CreateUserDTO{Username: " bob ", Email: "bob@x.com"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Username).To(Equal("bob"))
			Expect(created.Role).To(Equal(coreuser.RoleEmployee))
			Expect(created.Theme).To(Equal(coreuser.ThemeLight))
			Expect(created.ForcePasswordChange).To(BeTrue())

			stored := repo.users["bob"]
			Expect(stored.PasswordHash).NotTo(BeEmpty())
			Expect(stored.PasswordSetAt).NotTo(BeNil())

			Expect(publisher.events).To(HaveLen(1))
			e, ok := publisher.events[0].(*events.UserCreatedEvent)
			Expect(ok).To(BeTrue())
			Expect(e.Email).To(Equal("bob@x.com"))
			Expect(e.TemporaryPassword).To(HaveLen(10))
			Expect(credential.Verify(stored.PasswordHash, e.TemporaryPassword)).To(BeTrue())
		})

		DescribeTable("normalizes the role",
			func(in, want string) {
				created, err := svc.Create(ctx, user.CreateUserDTO{Username: "u-" + strings.ToLower(in), Email: "u@x.com", Role: in})
				Expect(err).NotTo(HaveOccurred())
				Expect(created.Role).To(Equal(want))
			},
			Entry("lower admin", "admin", coreuser.RoleAdmin),
			Entry("padded upper", "  EMPLOYEE ", coreuser.RoleEmployee),
			Entry("empty", "", coreuser.RoleEmployee),
		)

		It("rejects unknown roles", func() {
			_, err := svc.Create(ctx, user.CreateUserDTO{Username: "bob", Email: "bob@x.com", Role: "boss"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("role"))
		})

		It("requires username and email", func() {
			_, err := svc.Create(ctx, user.CreateUserDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details.(internal.ValidationErrors).Errors).To(HaveLen(2))
			Expect(publisher.events).To(BeEmpty())
		})

		It("rejects duplicate usernames", func() {
			_, err := svc.Create(ctx, user.CreateUserDTO{Username: "admin", Email: "other@x.com"})
			Expect(err).To(MatchError(internal.ErrUserAlreadyExists))
			Expect(publisher.events).To(BeEmpty())
		})

		It("maps a store failure to an internal error", func() {
			repo.createError = errors.New("disk full")
			_, err := svc.Create(ctx, user.CreateUserDTO{Username: "bob", Email: "bob@x.com"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})

	Describe("List", func() {
		It("returns users ordered by username without password fields", func() {
			repo.users["carl"] = &coreuser.User{Username: "carl", PasswordHash: "secret"}
			repo.users["bea"] = &coreuser.User{Username: "bea", Password: "legacy"}

			users, err := svc.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(3))
			Expect([]string{users[0].Username, users[1].Username, users[2].Username}).To(Equal([]string{"admin", "bea", "carl"}))
		})
	})

	Describe("Delete", func() {
		It("returns not found for unknown users", func() {
			Expect(svc.Delete(ctx, admin, "ghost")).To(MatchError(internal.ErrUserNotFound))
		})

		It("refuses to delete the acting admin", func() {
			repo.users["admin2"] = &coreuser.User{Username: "admin2", Role: coreuser.RoleAdmin}
			Expect(svc.Delete(ctx, admin, "admin")).To(MatchError(internal.ErrCannotDeleteYourself))
			Expect(repo.users).To(HaveKey("admin"))
		})

		It("refuses to delete the last admin", func() {
			other := &coreuser.User{Username: "root", Role: coreuser.RoleAdmin}
			repo = newMockUserRepository(other)
			svc = user.NewService(repo, publisher, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))

			Expect(svc.Delete(ctx, admin, "root")).To(MatchError(internal.ErrCannotDeleteLastAdmin))
			Expect(repo.users).To(HaveKey("root"))
		})

		It("deletes an admin while another one remains", func() {
			repo.users["admin2"] = &coreuser.User{Username: "admin2", Role: "admin"}

			Expect(svc.Delete(ctx, admin, "admin2")).To(Succeed())
			n, _ := repo.CountAdmins(ctx)
			Expect(n).To(Equal(int64(1)))
		})

		It("deletes employees", func() {
			repo.users["bob"] = &coreuser.User{Username: "bob", Role: coreuser.RoleEmployee}
			Expect(svc.Delete(ctx, admin, "bob")).To(Succeed())
			Expect(repo.users).NotTo(HaveKey("bob"))
		})
	})

	Describe("UpdateTheme", func() {
		It("stores a valid theme", func() {
			updated, err := svc.UpdateTheme(ctx, admin, user.UpdateThemeDTO{Theme: coreuser.ThemeDark})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Theme).To(Equal(coreuser.ThemeDark))
			Expect(repo.users["admin"].Theme).To(Equal(coreuser.ThemeDark))
		})

		It("rejects unknown themes", func() {
			_, err := svc.UpdateTheme(ctx, admin, user.UpdateThemeDTO{Theme: "solarized"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(repo.users["admin"].Theme).To(Equal(coreuser.ThemeLight))
		})
	})
})
