package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/moderation"
	"github.com/anivartee/anivartee/points"
	"github.com/anivartee/anivartee/utils"
	"github.com/anivartee/anivartee/utils/dotenv"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func newTestBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 100},
		watermill.NewStdLogger(false, false),
	)
}

func startWorker(t *testing.T, db *gorm.DB, bus *gochannel.GoChannel) (*points.Service, context.CancelFunc) {
	pointsService := points.NewService(db)
	activity := moderation.NewActivityService(db)
	queue := moderation.NewQueueService(db)
	claims := moderation.NewClaimService(db, queue, pointsService, nil)
	verdicts := moderation.NewVerdictService(db, claims, queue, pointsService, NewSideEffectPublisher(bus))

	ctx, cancel := context.WithCancel(context.Background())
	w := NewSideEffectWorker("side_effect_worker_test", bus, pointsService, activity, verdicts)
	go func() {
		if err := w.RunModule(ctx); err != nil {
			t.Logf("worker exited: %v", err)
		}
	}()
	// Give the subscription a moment to attach, the in-process bus drops
	// messages published before any subscriber exists.
	time.Sleep(100 * time.Millisecond)

	return pointsService, cancel
}

func TestSideEffectAwardPoints(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newTestBus()
	pointsService, cancel := startWorker(t, db, bus)
	defer cancel()

	publisher := NewSideEffectPublisher(bus)
	publisher.AwardPoints("user_1", 4, "FACT_CHECK_COMPLETED", "fact_check_1")

	require.Eventually(t, func() bool {
		balance, err := pointsService.GetBalance(context.Background(), "user_1")
		return err == nil && balance == 4
	}, 5*time.Second, 50*time.Millisecond)

	history, err := pointsService.GetHistory(context.Background(), "user_1", 1, 10)
	require.NoError(t, err)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "FACT_CHECK_COMPLETED", history.Entries[0].Reason)
	require.NotNil(t, history.Entries[0].ContextID)
	assert.Equal(t, "fact_check_1", *history.Entries[0].ContextID)
}

func TestSideEffectRecordActivity(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newTestBus()
	_, cancel := startWorker(t, db, bus)
	defer cancel()

	publisher := NewSideEffectPublisher(bus)
	publisher.RecordActivity("checker_1", model.ActivityFactCheckComplete)

	require.Eventually(t, func() bool {
		var row model.DailyActivity
		err := db.Where("user_id = ?", "checker_1").First(&row).Error
		return err == nil && row.PostsFactChecked == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSideEffectDeleteDraft(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newTestBus()
	_, cancel := startWorker(t, db, bus)
	defer cancel()

	draft := model.FactCheckDraft{
		Id:            "draft_1",
		PostID:        "post_1",
		FactCheckerID: "checker_1",
		LastSavedAt:   time.Now(),
	}
	require.NoError(t, db.Create(&draft).Error)

	publisher := NewSideEffectPublisher(bus)
	publisher.DeleteDraft("post_1", "checker_1")

	require.Eventually(t, func() bool {
		var count int64
		err := db.Model(&model.FactCheckDraft{}).Where("post_id = ?", "post_1").Count(&count).Error
		return err == nil && count == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWorkerSkipsMalformedTask(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	bus := newTestBus()
	pointsService, cancel := startWorker(t, db, bus)
	defer cancel()

	// A garbage payload is acked and skipped, later tasks still execute.
	require.NoError(t, bus.Publish(TopicSideEffects, message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	publisher := NewSideEffectPublisher(bus)
	publisher.AwardPoints("user_1", 1, "POST_LIKED", "")

	require.Eventually(t, func() bool {
		balance, err := pointsService.GetBalance(context.Background(), "user_1")
		return err == nil && balance == 1
	}, 5*time.Second, 50*time.Millisecond)
}
