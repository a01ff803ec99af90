package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/internal/cryptox"
	"github.com/dmitrijs2005/mailvault/internal/logging"
	"github.com/dmitrijs2005/mailvault/internal/repositories/memory"
	"github.com/dmitrijs2005/mailvault/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault() *vault.Vault {
	return vault.New(memory.NewStore(), cryptox.KDFParams{Time: 1, MemoryKiB: 64, Threads: 1}, logging.NewDiscardLogger())
}

func run(t *testing.T, v *vault.Vault, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := New(v, strings.NewReader(input), &out).Run(context.Background(), args)
	return out.String(), err
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}

func TestRun_SaveThenLoad(t *testing.T) {
	v := newTestVault()

	out, err := run(t, v, "pw\nimap-secret\n", "save", "alice", "alice@mail.example")
	require.NoError(t, err)
	assert.Equal(t, "saved", lastLine(out))

	out, err = run(t, v, "pw\n", "load", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@mail.example", lastLine(out))
	assert.NotContains(t, out, "imap-secret")

	out, err = run(t, v, "pw\n", "load", "-show", "alice")
	require.NoError(t, err)
	assert.Equal(t, "imap-secret", lastLine(out))
}

func TestRun_SavePromptsForMailUser(t *testing.T) {
	v := newTestVault()

	out, err := run(t, v, "alice@mail.example\npw\nimap-secret\n", "save", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Mail username: ")
	assert.Equal(t, "Mail username: saved", lastLine(out))

	out, err = run(t, v, "pw\n", "load", "-show", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@mail.example\nimap-secret", strings.TrimRight(out, "\n"))
}

func TestRun_LoadWrongPassphrase(t *testing.T) {
	v := newTestVault()
	_, err := run(t, v, "pw\nimap-secret\n", "save", "alice", "alice@mail.example")
	require.NoError(t, err)

	_, err = run(t, v, "nope\n", "load", "alice")
	assert.ErrorIs(t, err, common.ErrorInvalidPassphrase)
	assert.ErrorContains(t, err, "wrong passphrase")
}

func TestRun_KeygenAndPubkey(t *testing.T) {
	v := newTestVault()

	_, err := run(t, v, "", "pubkey", "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	out, err := run(t, v, "pw\n", "keygen", "alice")
	require.NoError(t, err)
	pk := lastLine(out)
	assert.True(t, strings.HasPrefix(pk, "age1"), pk)

	out, err = run(t, v, "", "pubkey", "alice")
	require.NoError(t, err)
	assert.Equal(t, pk, lastLine(out))
}

func TestRun_Passwd(t *testing.T) {
	v := newTestVault()
	_, err := run(t, v, "old\nimap-secret\n", "save", "alice", "alice@mail.example")
	require.NoError(t, err)

	_, err = run(t, v, "old\nnew\nother\n", "passwd", "alice")
	assert.ErrorContains(t, err, "do not match")

	out, err := run(t, v, "old\nnew\nnew\n", "passwd", "alice")
	require.NoError(t, err)
	assert.Equal(t, "passphrase changed", lastLine(out))

	out, err = run(t, v, "new\n", "load", "-show", "alice")
	require.NoError(t, err)
	assert.Equal(t, "imap-secret", lastLine(out))

	_, err = run(t, v, "old\n", "load", "alice")
	assert.ErrorIs(t, err, common.ErrorInvalidPassphrase)
}

func TestRun_Usage(t *testing.T) {
	v := newTestVault()

	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"unknown", []string{"rotate", "alice"}},
		{"keygen without user", []string{"keygen"}},
		{"save without user", []string{"save"}},
		{"save extra", []string{"save", "alice", "a@mail", "b"}},
		{"load extra", []string{"load", "alice", "bob"}},
		{"bad flag", []string{"load", "-verbose", "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, v, "", tt.args...)
			assert.ErrorIs(t, err, ErrUsage)
		})
	}
}

func TestRun_MissingInput(t *testing.T) {
	_, err := run(t, newTestVault(), "", "save", "alice", "alice@mail.example")
	assert.Error(t, err)
}
