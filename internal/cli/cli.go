// Package cli implements vaultctl, an operator tool over the vault API.
//
//	vaultctl [config flags] <command> [command flags] <user-id> [mail-user]
//
// save prompts for the mail username when it is not given.
//
// Commands: keygen, pubkey, save, load, passwd.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/vault"
)

// ErrUsage is returned for unknown commands and missing arguments.
var ErrUsage = errors.New("usage: vaultctl <keygen|pubkey|save|load|passwd> <user-id> [mail-user]")

type CLI struct {
	vault  *vault.Vault
	reader *bufio.Reader
	fd     int
	out    io.Writer
}

// New returns a CLI reading answers from in and writing to out. When in is
// an *os.File attached to a terminal, secrets are read without echo.
func New(v *vault.Vault, in io.Reader, out io.Writer) *CLI {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &CLI{vault: v, reader: bufio.NewReader(in), fd: fd, out: out}
}

// Run executes one command. args must not contain config flags.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	show := fs.Bool("show", false, "print the mail password")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	pos := fs.Args()

	switch cmd {
	case "keygen":
		if len(pos) != 1 {
			return ErrUsage
		}
		return c.keygen(ctx, pos[0])
	case "pubkey":
		if len(pos) != 1 {
			return ErrUsage
		}
		return c.pubkey(ctx, pos[0])
	case "save":
		switch len(pos) {
		case 1:
			mailUser, err := GetSimpleText(c.reader, "Mail username", c.out)
			if err != nil {
				return err
			}
			return c.save(ctx, pos[0], mailUser)
		case 2:
			return c.save(ctx, pos[0], pos[1])
		}
		return ErrUsage
	case "load":
		if len(pos) != 1 {
			return ErrUsage
		}
		return c.load(ctx, pos[0], *show)
	case "passwd":
		if len(pos) != 1 {
			return ErrUsage
		}
		return c.passwd(ctx, pos[0])
	}

	return ErrUsage
}

func (c *CLI) secret(prompt string) (string, error) {
	return GetSecret(c.reader, c.fd, prompt, c.out)
}

func (c *CLI) keygen(ctx context.Context, userID string) error {
	passphrase, err := c.secret("Passphrase")
	if err != nil {
		return err
	}
	pair, err := c.vault.Keys().EnsureKeyPair(ctx, userID, passphrase)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(c.out, pair.PublicKey)
	return nil
}

func (c *CLI) pubkey(ctx context.Context, userID string) error {
	pk, err := c.vault.Keys().PublicKey(ctx, userID)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(c.out, pk)
	return nil
}

func (c *CLI) save(ctx context.Context, userID, mailUser string) error {
	passphrase, err := c.secret("Passphrase")
	if err != nil {
		return err
	}
	mailPassword, err := c.secret("Mail password")
	if err != nil {
		return err
	}
	if _, err := c.vault.SaveIdentity(ctx, userID, passphrase, mailUser, mailPassword); err != nil {
		return explain(err)
	}
	fmt.Fprintln(c.out, "saved")
	return nil
}

func (c *CLI) load(ctx context.Context, userID string, show bool) error {
	passphrase, err := c.secret("Passphrase")
	if err != nil {
		return err
	}
	user, password, err := c.vault.LoadIdentity(ctx, userID, passphrase)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(c.out, user)
	if show {
		fmt.Fprintln(c.out, password)
	}
	return nil
}

func (c *CLI) passwd(ctx context.Context, userID string) error {
	oldPass, err := c.secret("Current passphrase")
	if err != nil {
		return err
	}
	newPass, err := c.secret("New passphrase")
	if err != nil {
		return err
	}
	confirm, err := c.secret("Repeat new passphrase")
	if err != nil {
		return err
	}
	if newPass != confirm {
		return errors.New("passphrases do not match")
	}
	if err := c.vault.Keys().ChangePassphrase(ctx, userID, oldPass, newPass); err != nil {
		return explain(err)
	}
	fmt.Fprintln(c.out, "passphrase changed")
	return nil
}

// explain prefixes vault errors with an operator-facing hint. The vault
// error stays in the chain.
func explain(err error) error {
	switch {
	case errors.Is(err, common.ErrorInvalidPassphrase):
		return fmt.Errorf("wrong passphrase: %w", err)
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("nothing stored for this user: %w", err)
	}
	return err
}
