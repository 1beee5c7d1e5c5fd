package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/artpar/convreg/adapters/hasher"
	"github.com/artpar/convreg/adapters/random"
	"github.com/artpar/convreg/ports"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [key]",
	Short: "Hash an admin key for auth.admin_key_hash",
	Long: `Print the bcrypt hash of an admin key.

Without an argument the key is read from stdin, or prompted for without
echo when stdin is a terminal.
With --generate a new random key is printed first, then its hash.
Put the hash in auth.admin_key_hash (or CONVREG_ADMIN_KEY_HASH) to
require the X-Admin-Key header on selector writes.

Examples:
  convreg hash-key s3cret
  echo s3cret | convreg hash-key
  convreg hash-key --generate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashKey,
}

var (
	hashKeyCost     int
	hashKeyGenerate bool

	// keySource supplies generated keys.
	keySource ports.Random = random.Real{}
)

const generatedKeyLength = 40

func init() {
	rootCmd.AddCommand(hashKeyCmd)

	hashKeyCmd.Flags().IntVar(&hashKeyCost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	hashKeyCmd.Flags().BoolVar(&hashKeyGenerate, "generate", false, "generate a random key")
}

func runHashKey(cmd *cobra.Command, args []string) error {
	h, err := hasher.NewBcrypt(hashKeyCost)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var key string
	switch {
	case hashKeyGenerate:
		if len(args) == 1 {
			return errors.New("--generate takes no key argument")
		}
		if key, err = keySource.String(generatedKeyLength); err != nil {
			return err
		}
		fmt.Fprintf(out, "key:  %s\n", key)
	case len(args) == 1:
		key = args[0]
	default:
		if key, err = readKey(cmd); err != nil {
			return err
		}
	}
	if key == "" {
		return errors.New("key must not be empty")
	}

	hash, err := h.Hash(key)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}
	if hashKeyGenerate {
		fmt.Fprintf(out, "hash: %s\n", hash)
		return nil
	}
	fmt.Fprintln(out, hash)
	return nil
}

// readKey reads the key from stdin, prompting without echo on a terminal.
func readKey(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Admin key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no key given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
