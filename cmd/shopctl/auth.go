package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/account"
	"storefront/internal/model"
)

// passwordEnv supplies the password when --password is omitted.
const passwordEnv = "SHOP_PASSWORD"

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Long: `Log in with email and password. The password may also be given via
SHOP_PASSWORD or typed on stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}
			user, err := a.session.Login(cmd.Context(), email, pw)
			if err != nil {
				return fmt.Errorf("login failed: %s", model.UserMessage(err, "Login failed"))
			}
			printSuccess("Logged in as %s (%s)", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}
			user, err := a.session.Register(cmd.Context(), name, email, pw)
			if err != nil {
				return fmt.Errorf("registration failed: %s", model.UserMessage(err, "Registration failed"))
			}
			printSuccess("Welcome, %s!", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout()
			printSuccess("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			user := a.session.User()
			if a.asJSON {
				return printJSON(a.out, user)
			}
			fmt.Fprintf(a.out, "%s%s%s <%s>\n", colorBold, user.Name, colorReset, user.Email)
			if user.Phone != "" {
				fmt.Fprintf(a.out, "  Phone: %s\n", user.Phone)
			}
			fmt.Fprintf(a.out, "  Role:  %s\n", user.Role)
			if exp, ok := a.session.ExpiresAt(); ok {
				fmt.Fprintf(a.out, "  Token expires: %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var name, phone string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update name and phone",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if name == "" {
				name = a.session.User().Name
			}
			profile := account.NewProfile(a.session, a.accountOptions())
			_, err := profile.Save(cmd.Context(), name, phone)
			return err
		},
	}
	update.Flags().StringVar(&name, "name", "", "display name")
	update.Flags().StringVar(&phone, "phone", "", "phone number")

	cmd.AddCommand(update)
	return cmd
}

// readPassword returns flag, then $SHOP_PASSWORD, then one line of stdin.
func readPassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password required")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
