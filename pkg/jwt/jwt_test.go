package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/sales-ledger/pkg/jwt"
)

func TestGenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate("secret", "actor-1", "biz-1", "vendedor", "sales-ledger", 5)
	require.NoError(t, err)

	actorID, businessID, role, err := pkgjwt.Parse("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "actor-1", actorID)
	assert.Equal(t, "biz-1", businessID)
	assert.Equal(t, "vendedor", role)
}

func TestParse_FirmaIncorrectaOExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate("secret", "actor-1", "biz-1", "admin", "sales-ledger", 5)
	require.NoError(t, err)
	_, _, _, err = pkgjwt.Parse("otro-secret", tok)
	assert.Error(t, err)

	expired, err := pkgjwt.Generate("secret", "actor-1", "biz-1", "admin", "sales-ledger", -1)
	require.NoError(t, err)
	_, _, _, err = pkgjwt.Parse("secret", expired)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", "a", "b", "admin", "x", 5)
	assert.Error(t, err)
}
