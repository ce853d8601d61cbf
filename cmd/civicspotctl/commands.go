package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/civicspot/internal/apiclient"
	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
)

type opener func(cmd *cobra.Command) (*client, error)

func loginCmd(open opener) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.CLIRequestTimeout)
			defer cancel()

			u, err := c.session.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Name, u.Role())
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd(open opener) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Choose a password: ")
			if err != nil {
				return err
			}

			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.CLIRequestTimeout)
			defer cancel()

			u, err := c.session.Register(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", u.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			c.session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(open opener) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			st := c.session.State()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"status": st.Status(), "user": st.User})
			}

			if st.User == nil {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			fmt.Fprintf(out, "%s <%s>\n", st.User.Name, st.User.Email)
			fmt.Fprintf(out, "  Role:     %s\n", st.Role())
			if st.User.Username != "" {
				fmt.Fprintf(out, "  Username: @%s\n", st.User.Username)
			}
			if st.User.Department != "" {
				fmt.Fprintf(out, "  Department: %s\n", st.User.Department)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")
	return cmd
}

func profileCmd(open opener) *cobra.Command {
	var name, username, picture string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			current := c.session.User()
			if current == nil {
				return domain.ErrNotAuthenticated
			}

			// Unset flags keep the current values
			upd := domain.ProfileUpdate{Name: current.Name, Username: current.Username}
			if cmd.Flags().Changed("name") {
				upd.Name = name
			}
			if cmd.Flags().Changed("username") {
				upd.Username = username
			}
			if picture != "" {
				data, err := os.ReadFile(picture)
				if err != nil {
					return fmt.Errorf("failed to read picture: %w", err)
				}
				upd.PictureName = filepath.Base(picture)
				upd.Picture = data
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.CLIRequestTimeout)
			defer cancel()

			u, err := c.session.UpdateProfile(ctx, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile saved for %s\n", u.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "@handle")
	cmd.Flags().StringVarP(&picture, "picture", "p", "", "path of a profile picture")
	return cmd
}

// readPassword prompts without echo when the command reads a terminal and
// takes one line of input otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(data), nil
	}
	return readLine(in)
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// backendMessage returns the message the backend gave for a rejection
func backendMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (HTTP %d)", apiErr.Message, apiErr.StatusCode)
	}
	return ""
}
