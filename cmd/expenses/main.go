package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"expense-records/internal/config"
	"expense-records/internal/logging"
	"expense-records/internal/service"
	"expense-records/internal/storage"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("expenses", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to config file (default: ./config.yaml if present)")
	driver := fs.String("driver", "", "Database driver: sqlite or postgres")
	dsn := fs.String("dsn", "", "Database DSN (overrides DB_URL)")
	identity := fs.String("identity", "", "Row identity: surrogate or natural")
	initSchema := fs.Bool("init-schema", false, "Create the expenses table if it does not exist")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if *identity != "" {
		cfg.Database.Identity = *identity
	}

	log, err := logging.New(stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	dialect, err := storage.DialectFor(cfg.Database.Driver)
	if err != nil {
		return err
	}
	ident, err := storage.ParseIdentity(cfg.Database.Identity)
	if err != nil {
		return err
	}

	// The password and the menu share one scanner so piped input is read in order.
	lines := bufio.NewScanner(stdin)
	if dialect == storage.Postgres && needsPassword(cfg.Database) {
		fmt.Fprint(stdout, "Database password: ")
		password, err := readPassword(stdin, lines)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
		cfg.Database.Password = password
	}

	source, err := cfg.Database.DataSource()
	if err != nil {
		return err
	}

	pool, err := storage.Open(dialect.Driver, source)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer pool.Close()

	ctx := context.Background()
	store := storage.NewExpenseStore(pool, storage.Options{
		Dialect:     pool.Dialect(),
		Identity:    ident,
		RequireDate: cfg.Database.RequireDate,
	})
	if *initSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Info().
		Str("driver", dialect.Driver).
		Stringer("identity", ident).
		Bool("require_date", cfg.Database.RequireDate).
		Msg("expense store ready")

	svc := service.NewExpenseService(store, log)
	m := &menu{
		svc:         svc,
		identity:    ident,
		requireDate: cfg.Database.RequireDate,
		in:          lines,
		out:         stdout,
		log:         log,
	}
	return m.loop(ctx)
}

// needsPassword reports whether a URL-style DSN lacks a password.
func needsPassword(d config.DatabaseConfig) bool {
	if d.Password != "" || !strings.Contains(d.DSN, "://") {
		return false
	}
	u, err := url.Parse(d.DSN)
	if err != nil || u.User == nil {
		return true
	}
	_, ok := u.User.Password()
	return !ok
}

// readPassword reads the password without echo from a terminal, or as the
// next line of lines otherwise.
func readPassword(stdin io.Reader, lines *bufio.Scanner) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	if lines.Scan() {
		return strings.TrimSpace(lines.Text()), nil
	}
	if err := lines.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}
