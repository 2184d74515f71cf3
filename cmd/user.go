package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ColonelBlimp/cwtrainer/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage trainer accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			password, err := readPassword(cmd, "Password: ", true)
			if err != nil {
				return err
			}
			u, err := st.CreateUser(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s\n", u.Username)
			return nil
		})
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			users, err := st.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no users")
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"ID", "Username", "Created"})
			for _, u := range users {
				t.AppendRow(table.Row{u.ID, u.Username, u.CreatedAt.Local().Format("2006-01-02 15:04")})
			}
			t.Render()
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete an account and its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s\n", args[0])
			return nil
		})
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd USERNAME",
	Short: "Change an account password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			password, err := readPassword(cmd, "New password: ", true)
			if err != nil {
				return err
			}
			if err := st.UpdatePassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		})
	},
}

var userRenameCmd = &cobra.Command{
	Use:   "rename OLD NEW",
	Short: "Rename an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.RenameUser(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", args[0], strings.TrimSpace(args[1]))
			return nil
		})
	},
}

func init() {
	userCmd.AddCommand(userAddCmd, userListCmd, userDeleteCmd, userPasswdCmd, userRenameCmd)
}

// withStore opens the configured database for the duration of fn.
func withStore(fn func(*store.Store) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := store.Open(settings.Database())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// readPassword prompts on stderr and reads without echo from a terminal.
// Piped input is read as a single line.
func readPassword(cmd *cobra.Command, prompt string, confirm bool) (string, error) {
	in := cmd.InOrStdin()
	f, isFile := in.(*os.File)
	if !isFile || !term.IsTerminal(int(f.Fd())) {
		return readLine(in)
	}

	password, err := promptTerminal(cmd, f, prompt)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", store.ErrEmptyPassword
	}
	if confirm {
		again, err := promptTerminal(cmd, f, "Confirm password: ")
		if err != nil {
			return "", err
		}
		if again != password {
			return "", errors.New("passwords do not match")
		}
	}
	return password, nil
}

func promptTerminal(cmd *cobra.Command, f *os.File, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	password, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// readLine reads a single piped password; confirmation is skipped.
func readLine(in io.Reader) (string, error) {
	r := bufio.NewReader(in)
	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", store.ErrEmptyPassword
	}
	return line, nil
}
