package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqliteConfig = `http_server:
  port: 5000
database:
  driver: sqlite
  source: %q
security:
  id_allocation: transactional
  password_max_age_months: 4
  temp_password_length: 10
mail:
  provider: log
notification:
  admin_email: "admin@smartwork.test"
  max_workers: 1
  queue_size: 1
observability:
  logging:
    level: error
    format: text
`

var _ = Describe("migrate", func() {
	var dbPath string

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		dbPath = filepath.Join(dir, "smartwork.db")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(fmt.Sprintf(sqliteConfig, dbPath)), 0o600)).To(Succeed())

		previous := configPath
		configPath = dir
		DeferCleanup(func() {
			configPath = previous
			migrateRollback = false
			migrateDir = ""
			goose.SetBaseFS(nil)
		})
	})

	tables := func() (users, requests bool) {
		db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		defer sqlDB.Close()
		return db.Migrator().HasTable("users"), db.Migrator().HasTable("recurring_requests")
	}

	It("applies the embedded migrations to a sqlite database", func() {
		Expect(runMigration(migrateCmd, nil)).To(Succeed())

		users, recurring := tables()
		Expect(users).To(BeTrue())
		Expect(recurring).To(BeTrue())
	})

	It("is idempotent and rolls back with --rollback", func() {
		Expect(runMigration(migrateCmd, nil)).To(Succeed())
		Expect(runMigration(migrateCmd, nil)).To(Succeed())

		migrateRollback = true
		Expect(runMigration(migrateCmd, nil)).To(Succeed())

		users, recurring := tables()
		Expect(users).To(BeFalse())
		Expect(recurring).To(BeFalse())
	})

	It("fails on a missing migrations directory", func() {
		migrateDir = filepath.Join(GinkgoT().TempDir(), "absent")
		Expect(runMigration(migrateCmd, nil)).To(MatchError(ContainSubstring("migrations directory")))
	})
})
