package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dan9191/worklog-service/internal/config"
	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/models"
	"github.com/Dan9191/worklog-service/internal/repository"
	"github.com/Dan9191/worklog-service/internal/service"
	"github.com/Dan9191/worklog-service/internal/token"
	"github.com/Dan9191/worklog-service/internal/utils"
)

var (
	configPath string
	username   string
	password   string
	isAdmin    bool
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Work log service administration tool",
	Long:         "Administrative tool for bootstrapping users and maintaining project totals directly against the database",
	SilenceUsage: true,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  createUser,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  listUsers,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute project total hours from work logs",
	RunE:  reconcile,
}

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides CONFIG_FILE)")

	// User create flags
	userCreateCmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	userCreateCmd.Flags().StringVarP(&password, "password", "p", "", "Password (defaults to $ADMIN_PASSWORD)")
	userCreateCmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant the admin role")
	_ = userCreateCmd.MarkFlagRequired("username")

	// Add commands
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newService builds the same service stack the API uses
func newService() (*service.Service, func(), error) {
	if configPath != "" {
		os.Setenv("CONFIG_FILE", configPath)
	}
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	hasher := utils.NewArgon2Hasher(utils.Argon2Params{
		Memory:      cfg.Argon2Memory,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
	})
	svc := service.NewService(repository.NewRepository(db), hasher, token.NewManager(cfg.JWTSecret, cfg.JWTTTL), logger)
	return svc, func() { db.Close() }, nil
}

func createUser(cmd *cobra.Command, args []string) error {
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}

	svc, closeDB, err := newService()
	if err != nil {
		return err
	}
	defer closeDB()

	identity, err := svc.CreateUser(cmd.Context(), models.CreateUserRequest{
		Username: username,
		Password: password,
		IsAdmin:  isAdmin,
	})
	if err != nil {
		return describeError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User created successfully!\n")
	fmt.Fprintf(out, "User ID: %s\n", identity.ID)
	fmt.Fprintf(out, "Username: %s\n", identity.Username)
	fmt.Fprintf(out, "Admin: %t\n", identity.IsAdmin)
	return nil
}

func listUsers(cmd *cobra.Command, args []string) error {
	svc, closeDB, err := newService()
	if err != nil {
		return err
	}
	defer closeDB()

	users, err := svc.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	printUsers(cmd.OutOrStdout(), users)
	return nil
}

func reconcile(cmd *cobra.Command, args []string) error {
	svc, closeDB, err := newService()
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := svc.ReconcileProjectTotals(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Projects corrected: %d\n", n)
	return nil
}

func printUsers(w io.Writer, users []models.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found")
		return
	}

	fmt.Fprintf(w, "Total users: %d\n\n", len(users))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUsername\tAdmin\tCreated")
	for _, u := range users {
		admin := "No"
		if u.IsAdmin {
			admin = "Yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, admin, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

// describeError flattens validation issues into a readable message
func describeError(err error) error {
	issues := customerrors.GetIssues(err)
	if len(issues) == 0 {
		return err
	}
	msg := customerrors.GetMessage(err)
	for field, list := range issues {
		for _, issue := range list {
			msg += fmt.Sprintf("\n  %s: %s", field, issue)
		}
	}
	return fmt.Errorf("%s", msg)
}
