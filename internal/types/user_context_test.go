package types

import (
	"testing"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserContext_IsAdmin(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	assert.True(t, UserContext{UserID: id, SystemRole: AdminRole}.IsAdmin())
	assert.False(t, UserContext{UserID: id, SystemRole: UserRole}.IsAdmin())
	assert.False(t, UserContext{UserID: id}.IsAdmin())
}
