package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
	"github.com/akredia/akredia-api/internal/testutil"
)

var testIdentity = domainauth.Identity{
	ID:       "user-1",
	Username: "budi",
	Role:     domainauth.RoleLecturer,
}

func newTestCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()
	codec, err := NewCodec(CodecOptions{
		Secret: []byte("test-secret"),
		Now:    now,
	})
	require.NoError(t, err)
	return codec
}

func TestNewCodec_RequiresSecret(t *testing.T) {
	_, err := NewCodec(CodecOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsSigning(err))
}

func TestCodec_IssueAndVerify(t *testing.T) {
	issued := testutil.TestTime()
	codec := newTestCodec(t, testutil.FixedTimeFunc(issued))

	tokenStr, claims, err := codec.Issue(testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "budi", claims.Username)
	assert.Equal(t, domainauth.RoleLecturer, claims.Role)
	assert.Equal(t, issued, claims.IssuedAt)
	assert.Equal(t, issued.Add(DefaultTTL), claims.ExpiresAt)

	verified, err := codec.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, verified.UserID)
	assert.Equal(t, claims.Username, verified.Username)
	assert.Equal(t, claims.Role, verified.Role)
	assert.True(t, claims.IssuedAt.Equal(verified.IssuedAt))
	assert.True(t, claims.ExpiresAt.Equal(verified.ExpiresAt))
}

func TestCodec_VerifyAtExpiryBoundary(t *testing.T) {
	issued := testutil.TestTime()
	clock := issued
	codec := newTestCodec(t, func() time.Time { return clock })

	tokenStr, _, err := codec.Issue(testIdentity)
	require.NoError(t, err)

	// One second before expiry the token still verifies.
	clock = issued.Add(DefaultTTL - time.Second)
	_, err = codec.Verify(tokenStr)
	assert.NoError(t, err)

	// Past expiry it does not.
	clock = issued.Add(DefaultTTL + time.Second)
	_, err = codec.Verify(tokenStr)
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenExpired(err))
	assert.True(t, apperrors.IsTokenError(err))
}

func TestCodec_VerifyExpiredIsStable(t *testing.T) {
	issued := testutil.TestTime()
	clock := issued
	codec := newTestCodec(t, func() time.Time { return clock })

	tokenStr, _, err := codec.Issue(testIdentity)
	require.NoError(t, err)

	clock = issued.Add(DefaultTTL + time.Hour)
	for i := 0; i < 3; i++ {
		_, verr := codec.Verify(tokenStr)
		assert.True(t, apperrors.IsTokenExpired(verr))
	}
}

func TestCodec_VerifyForeignSignature(t *testing.T) {
	now := testutil.FixedTimeFunc(testutil.TestTime())
	codec := newTestCodec(t, now)

	other, err := NewCodec(CodecOptions{Secret: []byte("other-secret"), Now: now})
	require.NoError(t, err)

	tokenStr, _, err := other.Issue(testIdentity)
	require.NoError(t, err)

	_, err = codec.Verify(tokenStr)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenSignature, apperrors.GetCode(err))
}

func TestCodec_VerifyTamperedTokenFailsOnSignature(t *testing.T) {
	// Even when the tampered token is also expired, the signature check wins:
	// signature runs before the validity window.
	issued := testutil.TestTime()
	clock := issued
	codec := newTestCodec(t, func() time.Time { return clock })

	tokenStr, _, err := codec.Issue(testIdentity)
	require.NoError(t, err)

	tampered := tokenStr[:len(tokenStr)-2] + "xx"
	clock = issued.Add(DefaultTTL + time.Hour)

	_, err = codec.Verify(tampered)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenSignature, apperrors.GetCode(err))
}

func TestCodec_VerifyMalformed(t *testing.T) {
	codec := newTestCodec(t, testutil.FixedTimeFunc(testutil.TestTime()))

	for _, tokenStr := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		_, err := codec.Verify(tokenStr)
		require.Error(t, err, "token %q should not verify", tokenStr)
		assert.Equal(t, apperrors.ErrCodeTokenMalformed, apperrors.GetCode(err), "token %q", tokenStr)
	}
}

func TestCodec_VerifyNormalizesRole(t *testing.T) {
	codec := newTestCodec(t, testutil.FixedTimeFunc(testutil.TestTime()))

	identity := testIdentity
	identity.Role = domainauth.Role("admin")

	tokenStr, _, err := codec.Issue(identity)
	require.NoError(t, err)

	claims, err := codec.Verify(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, claims.Role)
}

func TestCodec_CustomTTL(t *testing.T) {
	issued := testutil.TestTime()
	codec, err := NewCodec(CodecOptions{
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
		Now:    testutil.FixedTimeFunc(issued),
	})
	require.NoError(t, err)

	_, claims, err := codec.Issue(testIdentity)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour), claims.ExpiresAt)
}
