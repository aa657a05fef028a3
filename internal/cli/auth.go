package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/validate"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an email address with the token from the verification link",
	RunE:  runVerify,
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset link",
	RunE:  runForgotPassword,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with the token from a reset link",
	RunE:  runResetPassword,
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("name", "", "display name")
	registerCmd.Flags().String("email", "", "account email")
	verifyCmd.Flags().String("token", "", "verification token")
	forgotPasswordCmd.Flags().String("email", "", "account email")
	resetPasswordCmd.Flags().String("token", "", "reset token")
}

// prompt asks for every empty field in one form. Secret fields are masked.
func prompt(fields ...promptField) error {
	var missing []huh.Field
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		in := huh.NewInput().Title(f.title).Value(f.value)
		if f.secret {
			in = in.EchoMode(huh.EchoModePassword)
		}
		missing = append(missing, in)
	}
	if len(missing) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(missing...)).Run()
}

type promptField struct {
	title  string
	value  *string
	secret bool
}

func flagValue(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}

func runLogin(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	f := validate.Login{Email: flagValue(cmd, "email")}
	if err := prompt(
		promptField{title: "Email", value: &f.Email},
		promptField{title: "Password", value: &f.Password, secret: true},
	); err != nil {
		return err
	}
	if err := validate.Struct(f); err != nil {
		return err
	}

	token, err := e.client.Login(context.Background(), api.LoginRequest{Email: f.Email, Password: f.Password})
	if err != nil {
		return errors.New(api.Message(err, "Login failed"))
	}
	if err := e.session.Login(token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	who := f.Email
	if id, err := e.session.Identity(); err == nil && id.Name != "" {
		who = id.Name
	}
	fmt.Printf("Signed in as %s\n", who)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.session.Logout(); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	f := validate.Register{Name: flagValue(cmd, "name"), Email: flagValue(cmd, "email")}
	if err := prompt(
		promptField{title: "Name", value: &f.Name},
		promptField{title: "Email", value: &f.Email},
		promptField{title: "Password", value: &f.Password, secret: true},
	); err != nil {
		return err
	}
	if err := validate.Struct(f); err != nil {
		return err
	}

	msg, err := e.client.Register(context.Background(), api.RegisterRequest{
		Name:     f.Name,
		Email:    f.Email,
		Password: f.Password,
	})
	return report(msg, err, "Registration failed")
}

func runVerify(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	f := validate.VerifyEmail{Token: flagValue(cmd, "token")}
	if err := prompt(promptField{title: "Verification token", value: &f.Token}); err != nil {
		return err
	}
	if err := validate.Struct(f); err != nil {
		return err
	}

	msg, err := e.client.VerifyEmail(context.Background(), f.Token)
	return report(msg, err, "Verification failed")
}

func runForgotPassword(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	f := validate.ForgotPassword{Email: flagValue(cmd, "email")}
	if err := prompt(promptField{title: "Email", value: &f.Email}); err != nil {
		return err
	}
	if err := validate.Struct(f); err != nil {
		return err
	}

	msg, err := e.client.ForgotPassword(context.Background(), f.Email)
	return report(msg, err, "Failed to send reset email")
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	f := validate.ResetPassword{Token: flagValue(cmd, "token")}
	if err := prompt(
		promptField{title: "Reset token", value: &f.Token},
		promptField{title: "New password", value: &f.Password, secret: true},
		promptField{title: "Confirm password", value: &f.Confirm, secret: true},
	); err != nil {
		return err
	}
	if err := validate.Struct(f); err != nil {
		return err
	}

	msg, err := e.client.ResetPassword(context.Background(), f.Token, f.Password)
	return report(msg, err, "Failed to reset password")
}

// report prints the server's confirmation or turns err into a user-facing
// message.
func report(msg string, err error, fallback string) error {
	if err != nil {
		return errors.New(api.Message(err, fallback))
	}
	if msg != "" {
		fmt.Println(msg)
	}
	return nil
}
