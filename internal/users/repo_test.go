package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/db/dbtest"
)

func TestFindByEmailOrUsername(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	ayse := dbtest.MustCreateUser(t, conn, "ayse")

	byUsername, err := repo.FindByEmailOrUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.Equal(t, ayse.ID, byUsername.ID)

	byEmail, err := repo.FindByEmailOrUsername(ctx, "  "+ayse.Email+" ")
	require.NoError(t, err)
	assert.Equal(t, ayse.ID, byEmail.ID)

	_, err = repo.FindByEmailOrUsername(ctx, "nobody")
	assert.True(t, db.IsNotFound(err))

	_, err = repo.FindByEmailOrUsername(ctx, "   ")
	assert.True(t, db.IsNotFound(err))
}

func TestFindByIDs(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	a := dbtest.MustCreateUser(t, conn, "a")
	b := dbtest.MustCreateUser(t, conn, "b")

	found, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "b", found[b.ID].Username)

	empty, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, db.IsNotFound(err))

	userA := found[a.ID]
	summary := SummaryFromModel(&userA)
	assert.Equal(t, "a", summary.Username)
	assert.Nil(t, SummaryFromModel(nil))
}
