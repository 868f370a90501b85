// Package admin implements usersctl, the operator CLI for the user service:
// applying migrations, creating accounts from a terminal and toggling
// whether an account may log in.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kazna/user-service/internal/cryptox"
	"github.com/kazna/user-service/internal/flagx"
	"github.com/kazna/user-service/internal/server"
	"github.com/kazna/user-service/internal/server/config"
	"github.com/kazna/user-service/internal/server/services"
	"github.com/kazna/user-service/internal/server/validation"
)

const usage = `usage: usersctl [config flags] <command> [command flags]

commands:
  migrate                          apply pending database migrations
  createuser -email E -username U -first-name F -last-name L
                                   create an account, prompting for the password
  activate -email E                allow the account to log in
  deactivate -email E              block the account from logging in
`

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("invalid usage")

type App struct {
	config    *config.Config
	out       io.Writer
	openStore func(ctx context.Context, c *config.Config) (*server.Store, error)
	hasher    cryptox.PasswordHasher
	prompt    passwordPrompt
}

func NewApp(c *config.Config, out io.Writer) *App {
	return &App{
		config:    c,
		out:       out,
		openStore: server.OpenStore,
		hasher:    cryptox.NewArgon2Hasher(cryptox.DefaultParams),
		prompt:    terminalPrompt{out: out},
	}
}

// Run executes the command found in args (os.Args[1:]). Config flags are
// skipped; they were already applied by config.LoadConfig.
func (a *App) Run(ctx context.Context, args []string) error {
	rest := flagx.RemainingArgs(args, config.FlagNames)
	if len(rest) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "migrate":
		return a.migrate(ctx)
	case "createuser":
		return a.createUser(ctx, cmdArgs)
	case "activate":
		return a.setActive(ctx, cmdArgs, true)
	case "deactivate":
		return a.setActive(ctx, cmdArgs, false)
	case "help", "-h", "-help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (a *App) withStore(ctx context.Context, fn func(s *server.Store) error) error {
	store, err := a.openStore(ctx, a.config)
	if err != nil {
		return err
	}
	if store.DB != nil {
		defer store.DB.Close()
	}
	return fn(store)
}

func (a *App) migrate(ctx context.Context) error {
	if a.config.DatabaseDriver == config.DriverMemory {
		fmt.Fprintln(a.out, "Nothing to migrate for the memory driver.")
		return nil
	}
	// Opening the store applies pending migrations.
	return a.withStore(ctx, func(*server.Store) error {
		fmt.Fprintln(a.out, "Migrations applied.")
		return nil
	})
}

func (a *App) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "email address (login)")
	username := fs.String("username", "", "username")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	password, err := a.readNewPassword()
	if err != nil {
		return err
	}

	return a.withStore(ctx, func(s *server.Store) error {
		us := services.NewUserService(s.Conn, s.Repos, a.hasher, a.config)
		u, err := us.Create(ctx, services.CreateUserInput{
			Email:     validation.Text(*email),
			Username:  validation.Text(*username),
			Password:  validation.Text(password),
			FirstName: validation.Text(*firstName),
			LastName:  validation.Text(*lastName),
		})
		if err != nil {
			a.printValidation(err)
			return err
		}
		fmt.Fprintf(a.out, "User %s created with id %s.\n", u.Email, u.ID)
		return nil
	})
}

func (a *App) setActive(ctx context.Context, args []string, active bool) error {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil || *email == "" {
		return ErrUsage
	}

	return a.withStore(ctx, func(s *server.Store) error {
		repo := s.Repos.Users(s.Conn.Conn())
		u, err := repo.GetByEmail(ctx, validation.NormalizeEmail(*email))
		if err != nil {
			return fmt.Errorf("user %s: %w", *email, err)
		}
		if err := repo.SetActive(ctx, u.ID, active); err != nil {
			return err
		}
		state := "deactivated"
		if active {
			state = "activated"
		}
		fmt.Fprintf(a.out, "User %s %s.\n", u.Email, state)
		return nil
	})
}

func (a *App) printValidation(err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return
	}
	msgs := verr.Messages()
	fields := make([]string, 0, len(msgs))
	for f := range msgs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(a.out, "Error: %s: %s\n", f, strings.Join(msgs[f], " "))
	}
}
