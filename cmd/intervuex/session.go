package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techieRahul17/intervuex/internal/session"
	"github.com/techieRahul17/intervuex/internal/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the local session record",
	Long:  "Log in, register, inspect or clear the session record kept in session.file.",
}

var (
	sessionEmail    string
	sessionName     string
	sessionUserType string
)

func init() {
	for _, c := range []*cobra.Command{sessionLoginCmd, sessionRegisterCmd} {
		c.Flags().StringVar(&sessionEmail, "email", "", "Email address (required)")
		c.Flags().StringVar(&sessionName, "name", "", "Display name")
		c.Flags().StringVar(&sessionUserType, "user-type", string(types.UserTypeCandidate), "candidate or interviewer")
		if err := c.MarkFlagRequired("email"); err != nil {
			panic(fmt.Sprintf("failed to mark email flag as required: %v", err))
		}
	}

	sessionCmd.AddCommand(sessionLoginCmd, sessionRegisterCmd, sessionShowCmd, sessionLogoutCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a session record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeSession(cmd, (*session.Manager).Login)
	},
}

var sessionRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Store a session record for a new user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeSession(cmd, (*session.Manager).Register)
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored session record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, err := sessionManager().Current()
		if err != nil {
			var noSession *session.ErrNoSession
			if errors.As(err, &noSession) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			return err
		}
		return printJSON(cmd, user)
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := sessionManager().Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

func sessionManager() *session.Manager {
	return session.NewManager(session.NewFileStorage(appConfig.Session.File))
}

func writeSession(cmd *cobra.Command, write func(*session.Manager, types.User, types.UserType) (*types.User, error)) error {
	req := types.LoginRequest{
		Email:    sessionEmail,
		Name:     sessionName,
		UserType: types.UserType(sessionUserType),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid session request: %w", err)
	}
	user, err := write(sessionManager(), types.User{Email: req.Email, Name: req.Name}, req.UserType)
	if err != nil {
		return err
	}
	return printJSON(cmd, user)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
