package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qolzam/imagehost/internal/testutil"
	"github.com/qolzam/imagehost/internal/types"
	"github.com/qolzam/imagehost/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateKeyFromFile(t *testing.T) {
	pub, priv := testutil.GenerateECDSAKeyPairPEM(t)
	file := filepath.Join(t.TempDir(), "private.pem")
	require.NoError(t, os.WriteFile(file, []byte(priv), 0o600))

	key, err := privateKey(file)
	require.NoError(t, err)

	token, err := utils.GenerateJWTToken(key, utils.TokenClaims{Claim: map[string]interface{}{types.HeaderUID: "x"}}, 1)
	require.NoError(t, err)
	_, err = utils.ValidateToken([]byte(pub), token)
	assert.NoError(t, err)
}

func TestRunRejectsBadFlags(t *testing.T) {
	assert.Error(t, run("not-a-uuid", types.UserRole, "dev", "", 1))
	assert.Error(t, run("", "root", "dev", "", 1))
	assert.Error(t, run("", types.UserRole, "dev", filepath.Join(t.TempDir(), "missing.pem"), 1))
}
