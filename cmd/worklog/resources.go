package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Dan9191/worklog-service/pkg/client"
)

func projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List or create projects",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			projects, err := c.Projects(cmd.Context())
			if err != nil {
				return err
			}
			printProjects(cmd.OutOrStdout(), projects)
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			p, err := c.CreateProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project created: %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.AddCommand(list, create)
	return cmd
}

func logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List, add, delete or export work logs",
	}

	var filter client.Filter
	addFilterFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&filter.From, "from", "", "First work date, YYYY-MM-DD")
		c.Flags().StringVar(&filter.To, "to", "", "Last work date, YYYY-MM-DD")
		c.Flags().StringVar(&filter.ProjectID, "project", "", "Project id")
		c.Flags().StringVar(&filter.UserID, "user", "", "User id")
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List work logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			logs, err := c.WorkLogs(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printWorkLogs(cmd.OutOrStdout(), logs)
			return nil
		},
	}
	addFilterFlags(list)

	var entry client.NewWorkLog
	var notes string
	add := &cobra.Command{
		Use:   "add",
		Short: "Log hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if notes != "" {
				entry.Notes = &notes
			}
			wl, err := c.CreateWorkLog(cmd.Context(), entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %.2fh on %s (%s)\n", wl.Hours, wl.WorkDate, wl.ID)
			return nil
		},
	}
	add.Flags().StringVar(&entry.ProjectID, "project", "", "Project id (required)")
	add.Flags().StringVar(&entry.WorkDate, "date", "", "Work date, YYYY-MM-DD (required)")
	add.Flags().Float64Var(&entry.Hours, "hours", 0, "Hours, 0.25 to 24 (required)")
	add.Flags().StringVar(&entry.UserID, "user", "", "User id (admins only; defaults to you)")
	add.Flags().StringVar(&notes, "notes", "", "Optional notes")
	_ = add.MarkFlagRequired("project")
	_ = add.MarkFlagRequired("date")
	_ = add.MarkFlagRequired("hours")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a work log (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.DeleteWorkLog(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	var output string
	exp := &cobra.Command{
		Use:   "export",
		Short: "Export an XML timesheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			xml, err := c.ExportWorkLogs(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(xml)
				return err
			}
			if err := os.WriteFile(output, xml, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Timesheet written to %s\n", output)
			return nil
		},
	}
	addFilterFlags(exp)
	exp.Flags().StringVarP(&output, "output", "o", "-", "Output file")

	cmd.AddCommand(list, add, del, exp)
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List or create users (admin)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			users, err := c.Users(cmd.Context())
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}

	var nu client.NewUser
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			u, err := c.CreateUser(cmd.Context(), nu)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User created: %s (%s)%s\n", u.Username, u.ID, adminSuffix(u.IsAdmin))
			return nil
		},
	}
	create.Flags().StringVarP(&nu.Username, "username", "u", "", "Username (required)")
	create.Flags().StringVarP(&nu.Password, "password", "p", "", "Password (required)")
	create.Flags().BoolVar(&nu.IsAdmin, "admin", false, "Grant the admin role")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(list, create)
	return cmd
}

func printProjects(w io.Writer, projects []client.Project) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTOTAL HOURS")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", p.ID, p.Name, p.TotalHours)
	}
	tw.Flush()
}

func printWorkLogs(w io.Writer, logs []client.WorkLog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tUSER\tPROJECT\tHOURS\tNOTES")
	var total float64
	for _, l := range logs {
		notes := ""
		if l.Notes != nil {
			notes = *l.Notes
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\n", l.ID, l.WorkDate, l.Username, l.ProjectName, l.Hours, notes)
		total += l.Hours
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%.2f\t\n", total)
	tw.Flush()
}

func printUsers(w io.Writer, users []client.User) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tADMIN")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", u.ID, u.Username, u.IsAdmin)
	}
	tw.Flush()
}
