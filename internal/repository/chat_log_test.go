//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/escience/sitebot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatLogRepository_CreateAndListRecent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc)
	defer pool.Close()

	repo := NewChatLogRepository(pool)

	for i := 0; i < 5; i++ {
		l, err := repo.Create(ctx, fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
		assert.NotEmpty(t, l.ID)
		assert.False(t, l.CreatedAt.IsZero())
	}

	logs, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "question 4", logs[0].UserMessage)
	assert.Equal(t, "answer 4", logs[0].BotResponse)
	assert.Equal(t, "question 2", logs[2].UserMessage)

	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].CreatedAt.After(logs[i-1].CreatedAt))
	}

	require.NoError(t, testutil.TruncateAll(ctx, pool))
	logs, err = repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
