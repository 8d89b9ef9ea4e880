package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/smartwork/internal/mail"
	"github.com/frahmantamala/smartwork/pkg/logger"
)

var mailTestTo string

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Mail delivery utilities",
}

var mailTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test message with the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		sender, err := mail.NewSender(cfg.Mail, logger.L())
		if err != nil {
			return err
		}
		if err := sender.Send(cmd.Context(), mailTestTo, "SmartWork test", "Mail delivery is configured correctly."); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
		fmt.Printf("sent test message to %s via %s\n", mailTestTo, cfg.Mail.Provider)
		return nil
	},
}

func init() {
	mailTestCmd.Flags().StringVar(&mailTestTo, "to", "", "recipient address")
	_ = mailTestCmd.MarkFlagRequired("to")
	mailCmd.AddCommand(mailTestCmd)
}
