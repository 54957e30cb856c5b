package worker

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/anivartee/anivartee/model"
	"github.com/anivartee/anivartee/moderation"
	"github.com/anivartee/anivartee/points"
	Logger "github.com/anivartee/anivartee/utils/log"
)

const TopicSideEffects = "moderation.side_effects"

type taskType string

const (
	taskAwardPoints    taskType = "AWARD_POINTS"
	taskRecordActivity taskType = "RECORD_ACTIVITY"
	taskDeleteDraft    taskType = "DELETE_DRAFT"
)

// task is the wire payload of one side-effect submission.
type task struct {
	Type          taskType           `json:"type"`
	UserID        string             `json:"userId,omitempty"`
	PostID        string             `json:"postId,omitempty"`
	FactCheckerID string             `json:"factCheckerId,omitempty"`
	Points        int                `json:"points,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	ContextID     string             `json:"contextId,omitempty"`
	Activity      model.ActivityType `json:"activity,omitempty"`
}

// SideEffectPublisher submits best-effort work to the event bus. Publishing
// never blocks the caller's request path and publish failures are only
// logged, per the fire-and-forget contract.
type SideEffectPublisher struct {
	bus *gochannel.GoChannel
}

func NewSideEffectPublisher(bus *gochannel.GoChannel) *SideEffectPublisher {
	return &SideEffectPublisher{bus: bus}
}

var _ moderation.SideEffects = (*SideEffectPublisher)(nil)

func (p *SideEffectPublisher) AwardPoints(userID string, pts int, reason string, contextID string) {
	p.publish(task{Type: taskAwardPoints, UserID: userID, Points: pts, Reason: reason, ContextID: contextID})
}

func (p *SideEffectPublisher) RecordActivity(userID string, activity model.ActivityType) {
	p.publish(task{Type: taskRecordActivity, UserID: userID, Activity: activity})
}

func (p *SideEffectPublisher) DeleteDraft(postID, factCheckerID string) {
	p.publish(task{Type: taskDeleteDraft, PostID: postID, FactCheckerID: factCheckerID})
}

func (p *SideEffectPublisher) publish(t task) {
	payload, err := json.Marshal(t)
	if err != nil {
		Logger.Log.Errorf("failed to marshal side-effect task: %v", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.bus.Publish(TopicSideEffects, msg); err != nil {
		Logger.Log.Errorf("failed to publish side-effect task %s: %v", t.Type, err)
	}
}

// SideEffectWorker consumes the side-effect topic and executes each task.
// Every task failure is logged and acked, a side effect is never retried
// into the caller's face.
type SideEffectWorker struct {
	name string

	bus      *gochannel.GoChannel
	points   *points.Service
	activity *moderation.ActivityService
	verdicts *moderation.VerdictService
}

func NewSideEffectWorker(name string, bus *gochannel.GoChannel, pts *points.Service, activity *moderation.ActivityService, verdicts *moderation.VerdictService) *SideEffectWorker {
	return &SideEffectWorker{
		name:     name,
		bus:      bus,
		points:   pts,
		activity: activity,
		verdicts: verdicts,
	}
}

func (w *SideEffectWorker) RunModule(ctx context.Context) error {
	messages, err := w.bus.Subscribe(ctx, TopicSideEffects)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		var t task
		if err := json.Unmarshal(msg.Payload, &t); err != nil {
			Logger.Log.Errorf("failed to decode side-effect task: %v", err)
			continue
		}
		w.execute(ctx, t)
	}
	return nil
}

func (w *SideEffectWorker) execute(ctx context.Context, t task) {
	switch t.Type {
	case taskAwardPoints:
		var contextID *string
		if t.ContextID != "" {
			contextID = &t.ContextID
		}
		if _, err := w.points.Award(ctx, t.UserID, t.Points, t.Reason, contextID); err != nil {
			Logger.Log.Errorf("failed to award %d points to %s for %s: %v", t.Points, t.UserID, t.Reason, err)
		}
	case taskRecordActivity:
		if err := w.activity.Record(ctx, t.UserID, t.Activity); err != nil {
			Logger.Log.Errorf("failed to record activity for %s: %v", t.UserID, err)
		}
	case taskDeleteDraft:
		if err := w.verdicts.DeleteDraft(ctx, t.PostID, t.FactCheckerID); err != nil {
			Logger.Log.Errorf("failed to delete draft after verdict: %v", err)
		}
	default:
		Logger.Log.Errorf("unknown side-effect task type: %s", t.Type)
	}
}

func (w *SideEffectWorker) Name() string {
	return w.name
}

func (w *SideEffectWorker) Shutdown() {}
