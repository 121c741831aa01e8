package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/keys"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/config"
	"github.com/google/subcommands"
)

var stdout io.Writer = os.Stdout

func openApp(ctx context.Context, cfg *config.Config) (*server.App, context.Context, context.CancelFunc, error) {
	app, err := server.NewApp(cfg, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := app.WithSignals(ctx)
	return app, ctx, cancel, nil
}

type migrateCmd struct {
	cfg *config.Config
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply database migrations" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate [-d <dsn>] [-c <config.json>]

  Applies all pending schema migrations.
`
}

func (m *migrateCmd) SetFlags(f *flag.FlagSet) {
	config.BindFlags(f, m.cfg)
}

func (m *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, ctx, cancel, err := openApp(ctx, m.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer app.Close()
	defer cancel()

	if err := app.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type reconcileCmd struct {
	cfg   *config.Config
	owner string
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "recompute account balances and loan states" }
func (*reconcileCmd) Usage() string {
	return `ledgerctl reconcile [-owner <id>]

  Rebuilds every account balance and loan paid value/status from the
  expense and revenue rows, one transaction per account or loan. Without
  -owner all owners are processed.
`
}

func (r *reconcileCmd) SetFlags(f *flag.FlagSet) {
	config.BindFlags(f, r.cfg)
	f.StringVar(&r.owner, "owner", "", "only reconcile rows of this owner")
}

func (r *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, ctx, cancel, err := openApp(ctx, r.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer app.Close()
	defer cancel()

	sum, err := app.Reconcile(ctx, r.owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "reconciled %d accounts, %d loans\n", sum.Accounts, sum.Loans)
	return subcommands.ExitSuccess
}

type rotateKeysCmd struct {
	cfg        *config.Config
	fromEnv    string
	toEnv      string
	owner      string
	readSecret func(prompt string) (string, error)
}

func (*rotateKeysCmd) Name() string     { return "rotate-keys" }
func (*rotateKeysCmd) Synopsis() string { return "re-encrypt stored secrets under a new key" }
func (*rotateKeysCmd) Usage() string {
	return `ledgerctl rotate-keys -from-env <VAR> -to-env <VAR> [-owner <id>] [-batch <n>] [-lock-timeout <d>]

  Decrypts every encrypted column with the old key and re-encrypts it with
  the new one, in small batches. Keys are base64 and read from the named
  environment variables; an empty variable is prompted for on the terminal.
  The job can be interrupted and re-run.
`
}

func (r *rotateKeysCmd) SetFlags(f *flag.FlagSet) {
	config.BindFlags(f, r.cfg)
	config.BindRotationFlags(f, r.cfg)
	f.StringVar(&r.fromEnv, "from-env", "", "variable holding the current key")
	f.StringVar(&r.toEnv, "to-env", "", "variable holding the new key")
	f.StringVar(&r.owner, "owner", "", "only rotate rows of this owner")
}

// resolveKey reads a base64 key from env, or from the terminal when the
// variable is unset or empty.
func (r *rotateKeysCmd) resolveKey(env, label string) ([]byte, error) {
	v := os.Getenv(env)
	if v == "" {
		var err error
		if v, err = r.readSecret(fmt.Sprintf("%s key (base64): ", label)); err != nil {
			return nil, err
		}
	}
	key, err := keys.DecodeKey(v)
	if err != nil {
		return nil, fmt.Errorf("%s key: %w", label, err)
	}
	return key, nil
}

func (r *rotateKeysCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if r.fromEnv == "" || r.toEnv == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	oldKey, err := r.resolveKey(r.fromEnv, "old")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer common.WipeByteArray(oldKey)

	newKey, err := r.resolveKey(r.toEnv, "new")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer common.WipeByteArray(newKey)

	app, ctx, cancel, err := openApp(ctx, r.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer app.Close()
	defer cancel()

	report, err := app.RotateKeys(ctx, keys.RotateRequest{OldKey: oldKey, NewKey: newKey, OwnerID: r.owner})
	fmt.Fprintf(stdout, "rotated %d, already rotated %d, failed %d, batches %d\n",
		report.Rotated, report.AlreadyRotated, report.Failed, report.Batches)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rotate-keys: %v\n", err)
		return subcommands.ExitFailure
	}
	if report.Failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
