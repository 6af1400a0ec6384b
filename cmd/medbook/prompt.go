package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/medbook/internal/domain"
	"golang.org/x/term"
)

// promptCredentials reads the email (unless given) and the password. The
// password is read without echo when stdin is a terminal.
func promptCredentials(email string) (domain.Credentials, error) {
	reader := bufio.NewReader(os.Stdin)

	if email == "" {
		fmt.Print("Email: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(input)
	}
	if email == "" {
		return domain.Credentials{}, errors.New("email is required")
	}

	fmt.Print("Password: ")
	var password string
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println() // newline after hidden input
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = string(b)
	} else {
		input, err := reader.ReadString('\n')
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(input, "\r\n")
	}

	return domain.Credentials{Email: email, Password: password}, nil
}
