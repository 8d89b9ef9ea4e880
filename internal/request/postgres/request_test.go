package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/smartwork/internal"
	requestDatamodel "github.com/frahmantamala/smartwork/internal/core/datamodel/request"
	"github.com/frahmantamala/smartwork/internal/idalloc"
	"github.com/frahmantamala/smartwork/internal/request"
)

func TestRequestRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RequestRepository Suite")
}

func day(s string) time.Time {
	t, err := time.Parse(request.DateLayout, s)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("RequestRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&requestDatamodel.Request{}, &requestDatamodel.RecurringRequest{})).To(Succeed())

		repo = NewRepository(db, idalloc.NewTxAllocator(db, slog.New(slog.NewTextHandler(io.Discard, nil))))
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	create := func(username, date string) *request.Request {
		r := &request.Request{EmployeeUsername: username, EmployeeName: username, Date: day(date), Status: request.StatusPending}
		Expect(repo.Create(ctx, r)).To(Succeed())
		return r
	}

	It("assigns ids above the recurring ledger's maximum", func() {
		Expect(db.Create(&requestDatamodel.RecurringRequest{
			ID: 7, EmployeeUsername: "bob", EmployeeName: "bob", DayOfWeek: 1, DayName: "Monday", Status: request.StatusPending,
		}).Error).To(Succeed())

		r := create("alice", "2025-03-10")
		Expect(r.ID).To(Equal(int64(8)))

		loaded, err := repo.GetByID(ctx, r.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Date.Equal(day("2025-03-10"))).To(BeTrue())
		Expect(loaded.EmployeeUsername).To(Equal("alice"))
	})

	It("returns not found for unknown ids", func() {
		_, err := repo.GetByID(ctx, 404)
		Expect(err).To(MatchError(internal.ErrRequestNotFound))
	})

	It("lists by date for everyone and per employee", func() {
		create("alice", "2025-03-12")
		create("bob", "2025-03-10")
		create("alice", "2025-03-11")

		all, err := repo.ListAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
		Expect(all[0].EmployeeUsername).To(Equal("bob"))

		mine, err := repo.ListByEmployee(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(mine).To(HaveLen(2))
		Expect(mine[0].Day()).To(Equal("2025-03-11"))
		Expect(mine[1].Day()).To(Equal("2025-03-12"))
	})

	It("decides only pending requests", func() {
		r := create("alice", "2025-03-10")
		at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

		ok, err := repo.Decide(ctx, r.ID, request.StatusApproved, "admin", at)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = repo.Decide(ctx, r.ID, request.StatusRejected, "admin", at)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		loaded, err := repo.GetByID(ctx, r.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Status).To(Equal(request.StatusApproved))
		Expect(*loaded.DecisionBy).To(Equal("admin"))
		Expect(loaded.DecisionAt.Equal(at)).To(BeTrue())

		ok, err = repo.Decide(ctx, 999, request.StatusApproved, "admin", at)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("deletes", func() {
		r := create("alice", "2025-03-10")
		Expect(repo.Delete(ctx, r.ID)).To(Succeed())
		Expect(repo.Delete(ctx, r.ID)).To(MatchError(internal.ErrRequestNotFound))
	})
})
