package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anivartee/anivartee/apperr"
	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/utils"
)

// ActivityService keeps per-(user, day) counters of notable actions. Writes
// arrive through the side-effect bus and are best-effort, reads back the
// editsPerDay quota.
type ActivityService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db, now: time.Now}
}

// Record increments today's counter for the given activity type, creating
// the day row on first use.
func (s *ActivityService) Record(ctx context.Context, userID string, activity model.ActivityType) error {
	column, ok := activityColumn(activity)
	if !ok {
		return apperr.Validation("unknown activity type: %s", activity)
	}

	row := model.DailyActivity{
		Id:     uuid.NewString(),
		UserID: userID,
		Day:    utils.StartOfDay(s.now()),
	}
	switch activity {
	case model.ActivityPostCreated:
		row.PostsCreated = 1
	case model.ActivityPostEdited:
		row.PostsEdited = 1
	case model.ActivityFactCheckComplete:
		row.PostsFactChecked = 1
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column: gorm.Expr("daily_activities."+column+" + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return apperr.Database("failed to record activity", err)
	}
	return nil
}

// EditCountToday backs the editsPerDay quota check at post edit time.
func (s *ActivityService) EditCountToday(ctx context.Context, userID string) (int, error) {
	var row model.DailyActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, utils.StartOfDay(s.now())).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Database("failed to fetch today's activity", err)
	}
	return row.PostsEdited, nil
}

func activityColumn(activity model.ActivityType) (string, bool) {
	switch activity {
	case model.ActivityPostCreated:
		return "posts_created", true
	case model.ActivityPostEdited:
		return "posts_edited", true
	case model.ActivityFactCheckComplete:
		return "posts_fact_checked", true
	default:
		return "", false
	}
}
