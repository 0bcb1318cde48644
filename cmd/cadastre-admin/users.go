package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadastre-backend-go/internal/core"
	"cadastre-backend-go/internal/db"
	"cadastre-backend-go/internal/identity"
	"cadastre-backend-go/internal/popup"
	"cadastre-backend-go/pkg/mailer"
	"cadastre-backend-go/pkg/messagequeue"
)

// cliActor is recorded as the actor of writes made from this command.
const cliActor = "cadastre-admin"

var provisionAdmin bool

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage viewer accounts",
}

var usersProvisionCmd = &cobra.Command{
	Use:   "provision <email>",
	Short: "Create or reuse an identity and mark its permission record",
	Long: `Create or reuse an identity for email and merge {email, admin} into its
permission record. A newly created identity gets a temporary password, which is
printed and, when SMTP is configured, mailed to the user.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersProvision,
}

func init() {
	usersProvisionCmd.Flags().BoolVar(&provisionAdmin, "admin", false, "mark the permission record as admin")
	usersCmd.AddCommand(usersProvisionCmd)
}

func runUsersProvision(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	fs := db.GetFirestoreClient()
	admin := core.NewAdminService(core.AdminDeps{
		Users:     db.NewFirestoreUserRepository(fs, app.logger),
		Prefs:     db.NewFirestorePreferencesRepository(fs),
		Directory: identity.NewFirebaseDirectory(app.auth),
		Audit:     core.NewAuditService(db.NewFirestoreAuditRepository(fs), messagequeue.NopPublisher{}, app.cfg.AuditQueue, app.logger),
		Notifier: mailer.New(mailer.Config{
			Host:   app.cfg.SMTPHost,
			Port:   app.cfg.SMTPPort,
			User:   app.cfg.SMTPUser,
			Pass:   app.cfg.SMTPPass,
			Sender: app.cfg.MailSender,
		}),
		Fields:    popup.DefaultCatalog(),
		ClientURL: app.cfg.ClientURL,
	}, app.logger)

	actor := &core.Session{UID: cliActor, Name: cliActor, Admin: true, Super: true}
	res, err := admin.Provision(ctx, actor, args[0], provisionAdmin)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "UID %s (%s) admin=%t\n", res.UID, res.Email, provisionAdmin)
	if res.Created {
		fmt.Fprintf(out, "created with temporary password %s\n", res.TempPassword)
		if res.Notified {
			fmt.Fprintln(out, "credentials mailed")
		}
	}
	return nil
}
