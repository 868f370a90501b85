package admin

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kazna/user-service/internal/common"
	"golang.org/x/term"
)

// ErrPasswordMismatch is returned when the two password entries differ.
var ErrPasswordMismatch = errors.New("passwords didn't match")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type passwordPrompt interface {
	ReadPassword(label string) ([]byte, error)
}

type terminalPrompt struct {
	out io.Writer
}

// ReadPassword prints label and reads a line from the terminal without echo.
func (p terminalPrompt) ReadPassword(label string) ([]byte, error) {
	if _, err := fmt.Fprint(p.out, label); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func (a *App) readNewPassword() (string, error) {
	first, err := a.prompt.ReadPassword("Password: ")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(first)

	second, err := a.prompt.ReadPassword("Password (again): ")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(second)

	if string(first) != string(second) {
		fmt.Fprintln(a.out, "Error: Your passwords didn't match.")
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}
