package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dan9191/worklog-service/pkg/client"
)

var (
	serverURL   string
	sessionPath string
)

var rootCmd = &cobra.Command{
	Use:           "worklog",
	Short:         "Log and review work hours",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultServer := os.Getenv("WORKLOG_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "Session file (default: user config dir)")

	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd(), projectsCmd(), logsCmd(), usersCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// newClient builds a client backed by the session file
func newClient() (*client.Client, error) {
	store := &client.FileStore{Path: sessionPath}
	if sessionPath == "" {
		def, err := client.DefaultFileStore()
		if err != nil {
			return nil, err
		}
		store = def
	}
	return client.New(serverURL, store), nil
}

func describe(err error) string {
	if errors.Is(err, client.ErrNotAuthenticated) {
		return "not logged in, run `worklog login`"
	}
	return "error: " + err.Error()
}
