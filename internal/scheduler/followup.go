package scheduler

import (
	"context"
	"time"

	"chatlead_backend/internal/events"
	platformevents "chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"
)

// FollowUp schedules a one-shot rescore for every newly created lead, so
// conversations that go quiet after the first contact are still re-evaluated
// once before the periodic stale sweep picks them up.
type FollowUp struct {
	scheduler RescoreScheduler
	delay     time.Duration
	log       *logger.Logger
}

// NewFollowUp creates the follow-up subscriber and registers it on the bus.
func NewFollowUp(scheduler RescoreScheduler, delay time.Duration, bus platformevents.Bus, log *logger.Logger) *FollowUp {
	f := &FollowUp{
		scheduler: scheduler,
		delay:     delay,
		log:       log,
	}
	bus.Subscribe(events.LeadCreatedEvent, platformevents.HandlerFunc(f.onLeadCreated))
	return f
}

func (f *FollowUp) onLeadCreated(ctx context.Context, event platformevents.Event) error {
	e, ok := event.(events.LeadCreated)
	if !ok {
		return nil
	}

	payload := RescoreLeadPayload{
		TenantID:       e.TenantID.String(),
		ConversationID: e.ConversationID,
		ChatbotID:      e.ChatbotID,
	}
	if err := f.scheduler.ScheduleLeadRescore(ctx, payload, time.Now().Add(f.delay)); err != nil {
		f.log.Error("failed to schedule follow-up rescore", "leadId", e.LeadID, "error", err)
		return err
	}
	f.log.Info("follow-up rescore scheduled", "leadId", e.LeadID, "delay", f.delay)
	return nil
}
