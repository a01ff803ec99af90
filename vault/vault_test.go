package vault

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/mailvault/internal/common"
	"github.com/dmitrijs2005/mailvault/internal/logging"
	"github.com/dmitrijs2005/mailvault/internal/sealbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)

	user, pass, err := v.LoadIdentity(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice@mail", user)
	assert.Equal(t, "secret1", pass)
}

func TestSaveIdentity_ReturnsCiphertext(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	identity, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)

	pair, err := store.GetKeyPair(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", identity.UserID)
	assert.Equal(t, pair.ID, identity.KeyID)
	assert.NotContains(t, identity.EncryptedUsername, "alice@mail")
	assert.NotContains(t, identity.EncryptedPassword, "secret1")

	stored, err := store.GetIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, identity.EncryptedUsername, stored.EncryptedUsername)
	assert.Equal(t, identity.EncryptedPassword, stored.EncryptedPassword)
}

func TestLoadIdentity_NoPriorSave(t *testing.T) {
	v, _ := newTestVault(t)

	_, _, err := v.LoadIdentity(context.Background(), "bob", "anything")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLoadIdentity_KeyedButNoIdentity(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	_, err := v.Keys().EnsureKeyPair(ctx, "bob", "pw1")
	require.NoError(t, err)

	_, _, err = v.LoadIdentity(ctx, "bob", "pw1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLoadIdentity_WrongPassphrase(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)

	user, pass, err := v.LoadIdentity(ctx, "alice", "wrong-pw")
	assert.ErrorIs(t, err, common.ErrorInvalidPassphrase)
	assert.Empty(t, user)
	assert.Empty(t, pass)
}

func TestLoadIdentity_Idempotent(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)

	u1, p1, err := v.LoadIdentity(ctx, "alice", "pw1")
	require.NoError(t, err)
	u2, p2, err := v.LoadIdentity(ctx, "alice", "pw1")
	require.NoError(t, err)

	assert.Equal(t, u1, u2)
	assert.Equal(t, p1, p2)
}

func TestSaveIdentity_Overwrite(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)
	_, err = v.SaveIdentity(ctx, "alice", "pw1", "alice@other", "secret2")
	require.NoError(t, err)

	user, pass, err := v.LoadIdentity(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice@other", user)
	assert.Equal(t, "secret2", pass)
}

func TestSaveIdentity_FailedWriteKeepsPreviousIdentity(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)

	store.failPutIdentity.Store(true)
	_, err = v.SaveIdentity(ctx, "alice", "pw1", "alice@new", "secret-new")
	assert.ErrorIs(t, err, common.ErrorPersistence)
	store.failPutIdentity.Store(false)

	user, pass, err := v.LoadIdentity(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice@mail", user)
	assert.Equal(t, "secret1", pass)
}

func TestSaveIdentity_FailedFirstWriteLeavesNothing(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	store.failPutIdentity.Store(true)
	_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	assert.ErrorIs(t, err, common.ErrorPersistence)
	store.failPutIdentity.Store(false)

	_, _, err = v.LoadIdentity(ctx, "alice", "pw1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSaveIdentity_EncryptionFailureWritesNothing(t *testing.T) {
	v, store := newTestVault(t)

	orig := encryptField
	calls := 0
	encryptField = func(plaintext, publicKey string) (string, error) {
		calls++
		if calls == 2 {
			return "", common.ErrorEncryption
		}
		return orig(plaintext, publicKey)
	}
	defer func() { encryptField = orig }()

	identity, err := v.SaveIdentity(context.Background(), "alice", "pw1", "alice@mail", "secret1")
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, common.ErrorEncryption)
	assert.Equal(t, int32(0), store.identityPuts.Load())
}

func TestSaveIdentity_CanceledContextWritesNothing(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	_, err := v.Keys().EnsureKeyPair(ctx, "alice", "pw1")
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = v.SaveIdentity(canceled, "alice", "pw1", "alice@mail", "secret1")
	assert.ErrorIs(t, err, common.ErrorPersistence)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), store.identityPuts.Load())
}

func TestSealIdentity_DoesNotStore(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	identity, err := v.SealIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int32(0), store.identityPuts.Load())

	h, err := v.Keys().UnlockPrivateKey(ctx, "alice", "pw1")
	require.NoError(t, err)
	defer h.Close()

	user, err := sealbox.Decrypt(identity.EncryptedUsername, h)
	require.NoError(t, err)
	assert.Equal(t, "alice@mail", user)
}

func TestLoadIdentity_CorruptedKDFHeaderFailsFast(t *testing.T) {
	v, store := newTestVault(t)
	ctx := context.Background()

	_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
	require.NoError(t, err)

	rewriteSealedHeader(t, store, "alice", func(h []byte) { binary.BigEndian.PutUint32(h[1:5], 1<<24) })

	done := make(chan error, 1)
	go func() {
		_, _, err := v.LoadIdentity(ctx, "alice", "pw1")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, common.ErrorDecryption)
	case <-time.After(10 * time.Second):
		t.Fatal("LoadIdentity did not return on a corrupted KDF header")
	}
}

func TestLoadIdentity_DecryptionFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt password field", func(t *testing.T) {
		v, store := newTestVault(t)
		_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
		require.NoError(t, err)

		identity, _ := store.GetIdentity(ctx, "alice")
		identity.EncryptedPassword = "bm90IGFnZQ=="
		require.NoError(t, store.Store.PutIdentity(ctx, identity))

		user, pass, err := v.LoadIdentity(ctx, "alice", "pw1")
		assert.ErrorIs(t, err, common.ErrorDecryption)
		assert.Empty(t, user, "half-decrypted identity must not leak")
		assert.Empty(t, pass)
	})

	t.Run("identity from another key pair", func(t *testing.T) {
		v, store := newTestVault(t)
		_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
		require.NoError(t, err)

		identity, _ := store.GetIdentity(ctx, "alice")
		identity.KeyID = "stale"
		require.NoError(t, store.Store.PutIdentity(ctx, identity))

		_, _, err = v.LoadIdentity(ctx, "alice", "pw1")
		assert.ErrorIs(t, err, common.ErrorDecryption)
	})

	t.Run("identity written for other user", func(t *testing.T) {
		v, store := newTestVault(t)
		_, err := v.SaveIdentity(ctx, "alice", "pw1", "alice@mail", "secret1")
		require.NoError(t, err)
		_, err = v.SaveIdentity(ctx, "bob", "pw1", "bob@mail", "secret2")
		require.NoError(t, err)

		bobs, _ := store.GetIdentity(ctx, "bob")
		bobs.UserID = "alice"
		bobs.KeyID = ""
		require.NoError(t, store.Store.PutIdentity(ctx, bobs))

		_, _, err = v.LoadIdentity(ctx, "alice", "pw1")
		assert.ErrorIs(t, err, common.ErrorDecryption)
	})
}

func TestLoadIdentity_PersistenceFailure(t *testing.T) {
	v, store := newTestVault(t)
	store.failGet.Store(true)

	_, _, err := v.LoadIdentity(context.Background(), "alice", "pw1")
	assert.ErrorIs(t, err, common.ErrorPersistence)
}

func TestVault_Validation(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	cases := []struct {
		name                     string
		user, pw, mailUser, mail string
	}{
		{"empty user", "", "pw1", "u", "p"},
		{"empty passphrase", "alice", "", "u", "p"},
		{"empty mail user", "alice", "pw1", "", "p"},
		{"empty mail password", "alice", "pw1", "u", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := v.SaveIdentity(ctx, c.user, c.pw, c.mailUser, c.mail)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}

	_, _, err := v.LoadIdentity(ctx, "", "pw1")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestVault_ErrorsAreVaultErrors(t *testing.T) {
	v, _ := newTestVault(t)

	_, _, err := v.LoadIdentity(context.Background(), "bob", "anything")

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, common.ErrorNotFound, ve.Kind)
	assert.NotEmpty(t, ve.Context)
}

func TestVault_LogsCarryNoSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	v := New(newFlakyStore(), testKDF, logger)
	ctx := context.Background()

	_, err := v.SaveIdentity(ctx, "alice", "pw1-secret", "alice@mail", "imap-secret")
	require.NoError(t, err)
	_, _, _ = v.LoadIdentity(ctx, "alice", "wrong-secret")

	out := buf.String()
	assert.Contains(t, out, "user_id=alice")
	for _, s := range []string{"pw1-secret", "alice@mail", "imap-secret", "wrong-secret", "AGE-SECRET-KEY"} {
		assert.NotContains(t, out, s)
	}
}

func TestVault_ConcurrentUsers(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			if _, err := v.SaveIdentity(ctx, user, "pw", user+"@mail", "secret"); err != nil {
				errs <- err
				return
			}
			got, _, err := v.LoadIdentity(ctx, user, "pw")
			if err != nil {
				errs <- err
				return
			}
			if got != user+"@mail" {
				errs <- fmt.Errorf("user %s got %s", user, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestVault_ConcurrentSavesSameUserStaySelfConsistent(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := context.Background()

	_, err := v.Keys().EnsureKeyPair(ctx, "alice", "pw1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := fmt.Sprint(i)
			_, _ = v.SaveIdentity(ctx, "alice", "pw1", "user"+s, "pass"+s)
		}(i)
	}
	wg.Wait()

	user, pass, err := v.LoadIdentity(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, user[len("user"):], pass[len("pass"):])
}
