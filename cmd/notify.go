package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamlens/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a test email with the configured SMTP settings",
	Args:  cobra.NoArgs,
	RunE:  runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Email.Enabled() {
		return fmt.Errorf("email is not configured: set EMAIL_SMTP_HOST and EMAIL_RECIPIENT")
	}
	a.logger.Info("email configuration",
		"host", a.cfg.Email.SMTPHost,
		"port", a.cfg.Email.SMTPPort,
		"sender", a.cfg.Email.Sender,
		"recipient", a.cfg.Email.Recipient,
		"password", notifier.MaskSecret(a.cfg.Email.Password))

	n, err := notifier.NewEmailNotifier(a.cfg.Email.Notifier())
	if err != nil {
		return err
	}
	if err := n.SendTest(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Test email sent successfully")
	return nil
}
