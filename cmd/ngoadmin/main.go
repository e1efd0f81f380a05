// Command ngoadmin performs operator tasks against the ngohub database:
// bootstrapping the first admin and minting or inspecting tokens.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"ngohub.org/internal/auth"
	"ngohub.org/internal/config"
	"ngohub.org/internal/store"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "hash-password":
		return cmdHashPassword(rest, stdin, stdout)
	case "create-admin":
		return cmdCreateAdmin(rest, stdin, stdout)
	case "issue-token":
		return cmdIssueToken(rest, stdout)
	case "verify-token":
		return cmdVerifyToken(rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	}
	printUsage(stdout)
	return fmt.Errorf("unknown command %q", cmd)
}

func printUsage(w io.Writer) {
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(w, "Usage: ngoadmin <command> [flags]")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  hash-password           Print a bcrypt hash of a password read from stdin")
	fmt.Fprintln(w, "  create-admin            Create an admin credential (bootstrap)")
	fmt.Fprintln(w, "  issue-token             Issue a token for an existing username")
	fmt.Fprintln(w, "  verify-token <token>    Verify a token and print its claims")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  NGOHUB_CONFIG           YAML config file (same as the API server)")
	fmt.Fprintln(w, "  NGOHUB_AUTH_SECRET      Token signing secret")
	fmt.Fprintln(w, "  NGOHUB_DB_DRIVER/DSN    Database selection")
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.StringP("config", "c", os.Getenv("NGOHUB_CONFIG"), "path to YAML config file")
	return fs, path
}

func readSecretLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}

func cmdHashPassword(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := readSecretLine(stdin)
	if err != nil {
		return err
	}
	if err := auth.ValidatePassword(pw); err != nil {
		return err
	}
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

func openStore(path string) (config.Config, *store.DB, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, db, nil
}

func cmdCreateAdmin(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("create-admin")
	username := fs.StringP("username", "u", "admin", "login name of the new admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := readSecretLine(stdin)
	if err != nil {
		return err
	}

	cfg, db, err := openStore(*cfgPath)
	if err != nil {
		return err
	}
	defer db.Close()
	tokens, err := cfg.Tokens()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The operator running this binary acts as the bootstrap admin.
	operator := &auth.Principal{ID: "ngoadmin", Role: auth.RoleAdmin}
	cred, err := auth.NewService(tokens, db).Register(ctx, operator, auth.NewCredential{
		LoginName: *username,
		Password:  pw,
		Role:      auth.RoleAdmin,
	})
	if err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Fprintf(stdout, "created admin %s (%s)\n", cred.LoginName, cred.ID)
	return nil
}

func cmdIssueToken(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("issue-token")
	username := fs.StringP("username", "u", "", "login name to issue the token for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("--username is required")
	}

	cfg, db, err := openStore(*cfgPath)
	if err != nil {
		return err
	}
	defer db.Close()
	tokens, err := cfg.Tokens()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cred, err := db.FindCredentialByLoginName(ctx, *username)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", *username, err)
	}
	token, exp, err := tokens.Issue(cred.ID, cred.Role)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	color.New(color.FgHiBlack).Fprintf(stdout, "expires %s\n", exp.Format(time.RFC3339))
	return nil
}

func cmdVerifyToken(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("verify-token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one token argument")
	}
	token, err := auth.ExtractToken(fs.Arg(0))
	if err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	tokens, err := cfg.Tokens()
	if err != nil {
		return err
	}
	claims, err := tokens.Verify(token)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintln(stdout, "valid")
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "subject\t%s\n", claims.Subject)
	fmt.Fprintf(tw, "role\t%s\n", claims.Role)
	fmt.Fprintf(tw, "issued\t%s\n", claims.IssuedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "expires\t%s\n", claims.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "id\t%s\n", claims.ID)
	return tw.Flush()
}
