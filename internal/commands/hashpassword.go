// Package commands implements the maintenance subcommands of the weekly
// events binary.
package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/example/weekly-events/internal/application"
)

// RunSeedAdmin provisions or replaces an account directly in the user
// store. It exists so an operator can create the admin account, which the
// public signup flow never grants.
//
// The password is read from stdin, masked when stdin is a terminal.
func RunSeedAdmin(ctx context.Context, args []string, stdin io.Reader, out io.Writer, users *application.UserService) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "admin", "account username")
	surname := fs.String("surname", "Administrator", "account surname")
	role := fs.String("role", application.RoleAdmin, "account role (user or admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword(stdin, out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	if err := users.Seed(ctx, *username, *surname, password, *role); err != nil {
		return err
	}

	fmt.Fprintf(out, "account %q saved with role %q\n", *username, *role)
	return nil
}

func readPassword(stdin io.Reader, out io.Writer) (string, error) {
	if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(out, "Password: ")
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
