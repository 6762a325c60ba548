package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"medisync/pkg/utils"
)

var apiBaseURL string

type ResponseError struct {
	Message string `json:"message"`
}

var apiServiceBase = func() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL).
		SetHeader("Accept", "application/json").
		SetError(&ResponseError{}).
		OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() >= 400 {
				return fmt.Errorf("%s", resp.Error().(*ResponseError).Message)
			}
			return nil
		})
}

var rootCmd = &cobra.Command{
	Use:   "medisync",
	Short: "MediSync account CLI",
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage portal accounts",
}

var (
	registerUsername string
	registerName     string
	registerQuestion string
	registerAnswer   string
)

var accountRegisterCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Register a new patient account with a generated password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		password, err := utils.GenerateRandomString(12)
		if err != nil {
			return err
		}

		var result struct {
			User struct {
				ID       string `json:"id"`
				Email    string `json:"email"`
				Username string `json:"username"`
				Role     string `json:"role"`
			} `json:"user"`
		}

		_, err = apiServiceBase().R().
			SetBody(map[string]string{
				"email":          email,
				"username":       registerUsername,
				"password":       password,
				"name":           registerName,
				"secretQuestion": registerQuestion,
				"secretAnswer":   registerAnswer,
			}).
			SetResult(&result).
			Post("/register")
		if err != nil {
			return err
		}

		fmt.Println("User ID  :", result.User.ID)
		fmt.Println("Email    :", result.User.Email)
		fmt.Println("Username :", result.User.Username)
		fmt.Println("Role     :", result.User.Role)
		fmt.Println("Password :", password)
		return nil
	},
}

var accountRecoverCmd = &cobra.Command{
	Use:   "recover <identifier>",
	Short: "Walk the security-question password-recovery flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := apiServiceBase()
		reader := bufio.NewReader(os.Stdin)

		var started struct {
			RecoveryToken string `json:"recovery_token"`
		}
		_, err := client.R().
			SetBody(map[string]string{"identifier": args[0]}).
			SetResult(&started).
			Post("/forgot-password/validate-user")
		if err != nil {
			return err
		}

		var question struct {
			Question string `json:"question"`
		}
		_, err = client.R().
			SetBody(map[string]string{"recovery_token": started.RecoveryToken}).
			SetResult(&question).
			Post("/forgot-password/get-question")
		if err != nil {
			return err
		}

		fmt.Println("Security question:", question.Question)
		fmt.Print("Answer: ")
		answer, err := reader.ReadString('\n')
		if err != nil {
			return err
		}

		var verified struct {
			RecoveryToken string `json:"recovery_token"`
		}
		_, err = client.R().
			SetBody(map[string]string{
				"recovery_token": started.RecoveryToken,
				"answer":         strings.TrimSpace(answer),
			}).
			SetResult(&verified).
			Post("/forgot-password/validate-answer")
		if err != nil {
			return err
		}

		fmt.Print("New password: ")
		password, err := reader.ReadString('\n')
		if err != nil {
			return err
		}

		_, err = client.R().
			SetBody(map[string]string{
				"recovery_token": verified.RecoveryToken,
				"newPassword":    strings.TrimSpace(password),
			}).
			Post("/forgot-password/reset-password")
		if err != nil {
			return err
		}

		fmt.Println("Password reset complete.")
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "http://localhost:3000/api", "API base URL")

	accountRegisterCmd.Flags().StringVar(&registerUsername, "username", "", "username for the new account")
	accountRegisterCmd.Flags().StringVar(&registerName, "name", "", "display name")
	accountRegisterCmd.Flags().StringVar(&registerQuestion, "question", "", "security question")
	accountRegisterCmd.Flags().StringVar(&registerAnswer, "answer", "", "security answer")
	accountRegisterCmd.MarkFlagRequired("username")
	accountRegisterCmd.MarkFlagRequired("name")
	accountRegisterCmd.MarkFlagRequired("question")
	accountRegisterCmd.MarkFlagRequired("answer")

	accountCmd.AddCommand(accountRegisterCmd)
	accountCmd.AddCommand(accountRecoverCmd)
	rootCmd.AddCommand(accountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
