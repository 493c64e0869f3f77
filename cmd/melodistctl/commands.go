package main

import (
	"fmt"
	"strconv"
	"time"

	"melodist/internal/domain"
	"melodist/internal/repository"
	"melodist/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newMigrateCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cc.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newQueueCommand(cc *commandContext) *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "queue <entity>",
		Short: "List the oldest records in a status (default pending)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, st, err := parseQueueArgs(args[0], status)
			if err != nil {
				return err
			}
			a, err := cc.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			svc := service.NewStatusService(a.DB, nil, nil, a.Metrics, a.Logger)
			list, err := svc.Queue(cmd.Context(), e, st, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no %s records in %s\n", e, st)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(queueHeaders(e), queueRows(e, list), queueAligns(e)))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Status to list (defaults to the entity's initial status)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows")
	return cmd
}

func parseQueueArgs(entity, status string) (domain.Entity, domain.Status, error) {
	e, err := domain.ParseEntity(entity)
	if err != nil {
		return "", "", err
	}
	if status == "" {
		return e, domain.StatusPending, nil
	}
	st, err := domain.ParseStatus(e, status)
	if err != nil {
		return "", "", err
	}
	return e, st, nil
}

func queueHeaders(e domain.Entity) []string {
	h := []string{"ID", "User", "Status", "Version"}
	if e == domain.EntityWithdrawal {
		h = append(h, "Amount")
	}
	return append(h, "Created")
}

func queueAligns(e domain.Entity) []columnAlignment {
	a := []columnAlignment{alignRight, alignRight, alignLeft, alignRight}
	if e == domain.EntityWithdrawal {
		a = append(a, alignRight)
	}
	return append(a, alignLeft)
}

func queueRows(e domain.Entity, list []repository.StatusRecord) [][]string {
	rows := make([][]string, 0, len(list))
	for _, rec := range list {
		row := []string{
			strconv.FormatUint(uint64(rec.ID), 10),
			strconv.FormatUint(uint64(rec.UserID), 10),
			rec.Status,
			strconv.FormatUint(uint64(rec.Version), 10),
		}
		if e == domain.EntityWithdrawal {
			row = append(row, rec.Amount.StringFixed(2))
		}
		rows = append(rows, append(row, rec.CreatedAt.UTC().Format(time.RFC3339)))
	}
	return rows
}

func newStatusCommand(cc *commandContext) *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect and change record statuses",
	}

	var note, actorEmail string
	var expected int
	setCmd := &cobra.Command{
		Use:   "set <entity> <id> <status>",
		Short: "Move a record to a new status",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := domain.ParseEntity(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			a, err := cc.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			notifier := service.NewNotificationService(repository.NewNotificationRepository(a.DB), a.Logger)
			svc := service.NewStatusService(a.DB, notifier, nil, a.Metrics, a.Logger)
			req := service.TransitionRequest{Entity: e, ID: id, To: args[2], Note: note}
			if expected > 0 {
				v := uint(expected)
				req.ExpectedVersion = &v
			}
			res, err := svc.Apply(cmd.Context(), service.Actor{Email: actorEmail}, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d: %s -> %s (version %d)\n", res.Entity, res.ID, res.From, res.To, res.Version)
			return nil
		},
	}
	setCmd.Flags().StringVar(&note, "note", "", "Note shown to the customer (required for rejections)")
	setCmd.Flags().StringVar(&actorEmail, "actor-email", "cli", "Recorded as the acting admin")
	setCmd.Flags().IntVar(&expected, "expected-version", 0, "Fail unless the record is at this version")

	historyCmd := &cobra.Command{
		Use:   "history <entity> <id>",
		Short: "Show the status history of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := domain.ParseEntity(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			a, err := cc.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			svc := service.NewStatusService(a.DB, nil, nil, a.Metrics, a.Logger)
			list, err := svc.History(cmd.Context(), e, id)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, h := range list {
				rows = append(rows, []string{
					h.CreatedAt.UTC().Format(time.RFC3339),
					h.FromStatus,
					h.ToStatus,
					strconv.FormatUint(uint64(h.Version), 10),
					h.ActorEmail,
					h.Note,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"At", "From", "To", "Version", "Actor", "Note"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	statusCmd.AddCommand(setCmd, historyCmd)
	return statusCmd
}

func newWalletCommand(cc *commandContext) *cobra.Command {
	walletCmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	var note, reportURL, actorEmail string
	creditCmd := &cobra.Command{
		Use:   "credit <user_id> <amount> <period>",
		Short: "Credit royalties for a period (YYYY-MM) to a user's wallet",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			a, err := cc.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			notifier := service.NewNotificationService(repository.NewNotificationRepository(a.DB), a.Logger)
			svc := service.NewRoyaltyService(a.DB, notifier, a.Logger)
			report, err := svc.Credit(cmd.Context(), service.Actor{Email: actorEmail}, service.RoyaltyCredit{
				UserID:    userID,
				Amount:    amount,
				Period:    args[2],
				ReportURL: reportURL,
				Note:      note,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credited %s to user %d for %s (report %d)\n",
				report.Amount.StringFixed(2), report.UserID, report.Period, report.ID)
			return nil
		},
	}
	creditCmd.Flags().StringVar(&note, "note", "", "Ledger note")
	creditCmd.Flags().StringVar(&reportURL, "report-url", "", "Link to the royalty statement")
	creditCmd.Flags().StringVar(&actorEmail, "actor-email", "cli", "Recorded as the acting admin")

	walletCmd.AddCommand(creditCmd)
	return walletCmd
}

func newUserCommand(cc *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Account operations",
	}
	authService := func(cmd *cobra.Command) (*service.AuthService, error) {
		a, err := cc.ensureApp(cmd.Context())
		if err != nil {
			return nil, err
		}
		return service.NewAuthService(a.Config, repository.NewUserRepository(a.DB), a.Policy, a.Logger), nil
	}

	tokenCmd := &cobra.Command{
		Use:   "verify-token <email>",
		Short: "Print an email verification token for the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := authService(cmd)
			if err != nil {
				return err
			}
			tok, err := svc.VerificationToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	verifyCmd := &cobra.Command{
		Use:   "verify <email>",
		Short: "Mark the account's email address as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := authService(cmd)
			if err != nil {
				return err
			}
			tok, err := svc.VerificationToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sess, err := svc.VerifyEmail(cmd.Context(), tok)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified %s (user %d, admin %t)\n", sess.User.Email, sess.User.ID, sess.IsAdmin)
			return nil
		},
	}
	userCmd.AddCommand(tokenCmd, verifyCmd)
	return userCmd
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(n), nil
}
