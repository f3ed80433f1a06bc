package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/erpgenie-cli/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, show or clear saved chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := sessionsDir()
		if err != nil {
			return err
		}
		sums, err := session.List(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(sums) == 0 {
			fmt.Fprintln(out, "(no sessions)")
			return nil
		}
		for _, s := range sums {
			fmt.Fprintf(out, "- %s  %s  %d messages, %d tables  %s\n",
				s.ID, s.UpdatedAt.Format("2006-01-02 15:04"), s.Messages, s.Tables, s.Preview)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args[0])
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), s)
		return nil
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Reset a session to the greeting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args[0])
		if err != nil {
			return err
		}
		s.Clear()
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared session %s\n", s.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
}

func sessionsDir() (string, error) {
	c, err := loadedConfig()
	if err != nil {
		return "", err
	}
	if c.SessionsDir == "" {
		return "", fmt.Errorf("sessions_dir is not configured")
	}
	return c.SessionsDir, nil
}

func openSession(id string) (*session.Session, error) {
	dir, err := sessionsDir()
	if err != nil {
		return nil, err
	}
	s, err := session.Load(dir, id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("session %q not found in %s", id, dir)
		}
		return nil, err
	}
	return s, nil
}
