package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenylistRevoke(t *testing.T) {
	srv := miniredis.RunT(t)
	d := NewDenylist(srv.Addr())
	ctx := context.Background()

	assert.False(t, d.IsRevoked(ctx, "jti-1"))

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	assert.True(t, d.IsRevoked(ctx, "jti-1"))
	assert.False(t, d.IsRevoked(ctx, "jti-2"))

	// the entry expires with the token
	srv.FastForward(2 * time.Hour)
	assert.False(t, d.IsRevoked(ctx, "jti-1"))
}

func TestDenylistExpiredToken(t *testing.T) {
	srv := miniredis.RunT(t)
	d := NewDenylist(srv.Addr())
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "jti-viejo", time.Now().Add(-time.Minute)))
	assert.False(t, d.IsRevoked(ctx, "jti-viejo"))
}

func TestDenylistDisabled(t *testing.T) {
	var d *Denylist = NewDenylist("")
	ctx := context.Background()

	assert.Nil(t, d)
	assert.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	assert.False(t, d.IsRevoked(ctx, "jti-1"))
}

func TestDenylistEmptyJTI(t *testing.T) {
	srv := miniredis.RunT(t)
	d := NewDenylist(srv.Addr())
	ctx := context.Background()

	assert.NoError(t, d.Revoke(ctx, "", time.Now().Add(time.Hour)))
	assert.False(t, d.IsRevoked(ctx, ""))
}
