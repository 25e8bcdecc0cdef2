package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/freightdesk/console/internal/cli/userconfig"
)

// readCredentials fills in missing credentials from the environment or, on
// a terminal, from interactive prompts. The password is never echoed.
func readCredentials(username, password string) (string, string, error) {
	if username == "" {
		username = os.Getenv("FREIGHTDESK_USERNAME")
	}
	if password == "" {
		password = os.Getenv("FREIGHTDESK_PASSWORD")
	}

	interactive := term.IsTerminal(int(syscall.Stdin))

	if username == "" {
		if !interactive {
			return "", "", fmt.Errorf("username is required in non-interactive mode (use --username flag or FREIGHTDESK_USERNAME env var)")
		}

		last := ""
		if cfg, err := userconfig.Load(); err == nil {
			last = cfg.LastUsername
		}

		prompt := promptui.Prompt{
			Label:   "Username",
			Default: last,
			Validate: func(input string) error {
				if strings.TrimSpace(input) == "" {
					return errors.New("username is required")
				}
				return nil
			},
		}
		value, err := prompt.Run()
		if err != nil {
			return "", "", fmt.Errorf("username prompt cancelled: %w", err)
		}
		username = value
	}

	if password == "" {
		if !interactive {
			return "", "", fmt.Errorf("password is required in non-interactive mode (use --password flag or FREIGHTDESK_PASSWORD env var)")
		}

		fmt.Print("Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Println() // New line after password input
	}

	return username, password, nil
}
