package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/evanmoran/ganttd/internal/config"
	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

// newCreateUserCmd provisions a user from the command line, bootstrapping the
// first PMO account before any API credentials exist. With --org-name it also
// creates the organisation with a Monday-to-Friday default calendar.
func newCreateUserCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
		role     string
		orgID    string
		orgName  string
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account directly in the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (orgID == "") == (orgName == "") {
				return errors.New("exactly one of --org-id and --org-name is required")
			}
			if !domain.ValidRoles[role] {
				return fmt.Errorf("unknown role %q", role)
			}
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			database, err := db.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			repos := repository.NewRepos(database)
			now := time.Now().UTC()

			if orgName != "" {
				org := &domain.Organization{
					ID:              uuid.NewString(),
					Name:            orgName,
					Timezone:        timezone,
					WorkingDaysMask: "0111110",
					WorkingHours: []domain.WorkingBlock{
						{Start: "09:00", End: "13:00"},
						{Start: "14:00", End: "18:00"},
					},
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := org.Validate(); err != nil {
					return err
				}
				if err := repos.Organizations.Create(ctx, org); err != nil {
					return err
				}
				orgID = org.ID
				log.Info().Str("org_id", orgID).Str("name", orgName).Msg("organization created")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user := &domain.User{
				ID:             uuid.NewString(),
				OrganizationID: orgID,
				Email:          strings.ToLower(strings.TrimSpace(email)),
				Name:           name,
				PasswordHash:   string(hash),
				Role:           domain.Role(role),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := user.Validate(); err != nil {
				return err
			}
			if err := repos.Users.Create(ctx, user); err != nil {
				return err
			}

			log.Info().Str("user_id", user.ID).Str("email", user.Email).Str("role", role).Msg("user created")
			return nil
		},
	}

	fs := pflag.NewFlagSet("create-user", pflag.ContinueOnError)
	fs.StringVar(&email, "email", "", "login email (required)")
	fs.StringVar(&name, "name", "", "display name (required)")
	fs.StringVar(&password, "password", "", "initial password (required)")
	fs.StringVar(&role, "role", string(domain.RolePMO), "role: PMO, PM, TEAM_MEMBER or CLIENT")
	fs.StringVar(&orgID, "org-id", "", "existing organization id")
	fs.StringVar(&orgName, "org-name", "", "create a new organization with this name")
	fs.StringVar(&timezone, "timezone", "UTC", "timezone for a newly created organization")
	cmd.Flags().AddFlagSet(fs)
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
