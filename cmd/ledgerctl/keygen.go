package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ledgerkeeper/internal/common"
	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/google/subcommands"
)

const saltSize = 16

type keygenCmd struct {
	salt bool
}

func (*keygenCmd) Name() string     { return "keygen" }
func (*keygenCmd) Synopsis() string { return "print a new field key or passphrase salt" }
func (*keygenCmd) Usage() string {
	return `ledgerctl keygen [-salt]

  Prints a random base64 32-byte key, ready to be put into the key
  variable. With -salt prints a random hex salt for passphrase mode.
`
}

func (k *keygenCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&k.salt, "salt", false, "print a passphrase salt instead of a key")
}

func (k *keygenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if k.salt {
		s, err := common.MakeRandHexString(saltSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(stdout, s)
		return subcommands.ExitSuccess
	}

	key := common.GenerateRandByteArray(cryptox.KeySize)
	defer common.WipeByteArray(key)
	fmt.Fprintln(stdout, base64.StdEncoding.EncodeToString(key))
	return subcommands.ExitSuccess
}
