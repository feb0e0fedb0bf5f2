package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/auth"
)

const testSecret = "test-secret"

func newTokens() *auth.TokenService {
	return auth.NewTokenService(testSecret, 7*24*time.Hour)
}

func requireKind(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected classified error, got %v", err)
	assert.Equal(t, kind, e.Kind)
	assert.Equal(t, msg, e.Message)
}
