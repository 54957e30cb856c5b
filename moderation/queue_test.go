package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/utils"
)

func TestAddToQueueIdempotent(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	queue := NewQueueService(db)
	ctx := context.Background()

	first, err := queue.AddToQueue(ctx, "post_1", "author_1", 0)
	require.NoError(t, err)
	require.NotNil(t, first)

	// A retried enqueue returns the existing item instead of erroring.
	second, err := queue.AddToQueue(ctx, "post_1", "author_1", 5)
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, 0, second.Priority)

	var count int64
	require.NoError(t, db.Model(&model.QueueItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetQueueOrdering(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	queue := NewQueueService(db)
	ctx := context.Background()

	_, err := queue.AddToQueue(ctx, "post_old_low", "a", 0)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = queue.AddToQueue(ctx, "post_new_low", "a", 0)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = queue.AddToQueue(ctx, "post_high", "a", 10)
	require.NoError(t, err)

	page, err := queue.GetQueue(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)

	// Priority wins, FIFO breaks ties.
	assert.Equal(t, "post_high", page.Items[0].PostID)
	assert.Equal(t, "post_old_low", page.Items[1].PostID)
	assert.Equal(t, "post_new_low", page.Items[2].PostID)
}

func TestGetQueueOnlyListsPending(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	queue := NewQueueService(db)
	ctx := context.Background()

	item, err := queue.AddToQueue(ctx, "post_1", "a", 0)
	require.NoError(t, err)
	_, err = queue.AddToQueue(ctx, "post_2", "a", 0)
	require.NoError(t, err)

	require.NoError(t, queue.MarkClaimed(ctx, item.Id))

	page, err := queue.GetQueue(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "post_2", page.Items[0].PostID)

	require.NoError(t, queue.MarkPending(ctx, item.Id))
	page, err = queue.GetQueue(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestMarkCompletedByPost(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	queue := NewQueueService(db)
	ctx := context.Background()

	_, err := queue.AddToQueue(ctx, "post_1", "a", 0)
	require.NoError(t, err)

	require.NoError(t, queue.MarkCompletedByPost(ctx, "post_1"))
	item := getQueueItem(t, db, "post_1")
	assert.Equal(t, model.QueueStatusCompleted, item.Status)

	// Completing a post that was never queued is a no-op, not an error.
	require.NoError(t, queue.MarkCompletedByPost(ctx, "never_queued"))
}

func TestRemoveFromQueue(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	queue := NewQueueService(db)
	ctx := context.Background()

	_, err := queue.AddToQueue(ctx, "post_1", "a", 0)
	require.NoError(t, err)
	require.NoError(t, queue.RemoveFromQueue(ctx, "post_1"))

	// The row survives as an audit record, only the status flips.
	item := getQueueItem(t, db, "post_1")
	assert.Equal(t, model.QueueStatusRemoved, item.Status)

	page, err := queue.GetQueue(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestGetItemByPostNotFound(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	queue := NewQueueService(db)

	_, err := queue.GetItemByPost(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
