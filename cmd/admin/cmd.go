package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

var (
	readPasswordFunc = term.ReadPassword

	errHelp = errors.New("help provided")
)

type adminUserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CreateWithRole(ctx context.Context, user *models.User, profile models.RoleProfile, token *models.EmailVerificationToken) error
}

type migrateFunc func(ctx context.Context, command string, args ...string) error

type commandLine struct {
	users   adminUserStore
	migrate migrateFunc
	logger  *zap.Logger
	out     io.Writer
}

func (cli *commandLine) writer() io.Writer {
	if cli.out == nil {
		return os.Stdout
	}
	return cli.out
}

func (cli *commandLine) printUsage() {
	w := cli.writer()
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  migrate COMMAND [ARGS]                    - run database migrations (up, down, status, version, redo, reset)")
	fmt.Fprintln(w, "  create-admin -email EMAIL -name NAME      - create an active, verified administrator")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	createAdminCmd.SetOutput(cli.writer())
	email := createAdminCmd.String("email", "", "Administrator email address.")
	name := createAdminCmd.String("name", "", "Administrator display name.")
	password := createAdminCmd.String("password", "", "Password. Prompted when omitted.")

	ctx := context.Background()
	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2], args[3:]...)
	case "create-admin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" || *name == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd := *password
		if pwd == "" {
			fmt.Fprint(cli.writer(), "Enter password:")
			raw, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.writer())
			if err != nil {
				return err
			}
			pwd = string(raw)
		}
		if len(pwd) < minPasswordLength {
			return fmt.Errorf("password must be at least %d characters", minPasswordLength)
		}
		user, err := cli.createAdmin(ctx, *email, *name, pwd)
		if err != nil {
			return err
		}
		cli.logger.Info("administrator created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}
