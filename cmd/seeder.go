package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/smartwork/internal"
	coreuser "github.com/frahmantamala/smartwork/internal/core/user"
	"github.com/frahmantamala/smartwork/internal/credential"
	userPostgres "github.com/frahmantamala/smartwork/internal/user/postgres"
)

var (
	seedUsername    string
	seedEmail       string
	seedDisplayName string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first admin account",
	Long: `Create an Admin account when the database has none. The temporary
password is printed once; the admin must change it at first login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		sqlxDB, gormDB, err := openDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer sqlxDB.Close()

		repo := userPostgres.NewRepository(gormDB)
		ctx := cmd.Context()

		admins, err := repo.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if admins > 0 {
			fmt.Println("an admin already exists; nothing to seed")
			return nil
		}

		password, err := credential.GenerateTemporaryPassword(cfg.Security.TemporaryPasswordSize)
		if err != nil {
			return err
		}
		hash, err := credential.Hash(password)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		admin := &coreuser.User{
			Username:            seedUsername,
			DisplayName:         seedDisplayName,
			Email:               seedEmail,
			Role:                coreuser.RoleAdmin,
			Theme:               coreuser.ThemeLight,
			PasswordHash:        hash,
			PasswordSetAt:       &now,
			ForcePasswordChange: true,
		}
		if err := repo.Create(ctx, admin); err != nil {
			if errors.Is(err, internal.ErrUserAlreadyExists) {
				return fmt.Errorf("user %q already exists but is not an admin", seedUsername)
			}
			return fmt.Errorf("failed to insert admin: %w", err)
		}

		fmt.Printf("Seeded admin %s <%s>\n", admin.Username, admin.Email)
		fmt.Printf("Temporary password: %s\n", password)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedUsername, "username", "admin", "admin username")
	seedCmd.Flags().StringVar(&seedEmail, "email", "", "admin email address")
	seedCmd.Flags().StringVar(&seedDisplayName, "display-name", "", "admin display name")
	_ = seedCmd.MarkFlagRequired("email")
}
