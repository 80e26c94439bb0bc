package service

import (
	"context"
	"fmt"

	"tg-antijudi/internal/classifier"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/metrics"
	"tg-antijudi/internal/models"
	"tg-antijudi/internal/policy"
	"tg-antijudi/internal/sanction"
	"tg-antijudi/internal/storage"
)

// Outcome labels for processed messages.
const (
	OutcomeInactive  = "inactive"
	OutcomeSkipped   = "skipped"
	OutcomeClean     = "clean"
	OutcomeViolation = "violation"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// MessageResult describes what HandleMessage did with one message.
type MessageResult struct {
	Outcome        string
	ViolationCount int
	Decision       policy.Decision
	Sanction       sanction.Outcome
}

// HandleMessage classifies a group message and, for a new violation,
// deletes it, warns the sender and applies the escalation policy. The
// classifier runs before the sender's lock is taken; recording and any
// sanction run under it.
func (m *Moderator) HandleMessage(ctx context.Context, msg models.Message) (res MessageResult, err error) {
	defer func() {
		if err != nil {
			res.Outcome = OutcomeError
		}
		metrics.MessagesProcessed.WithLabelValues(res.Outcome).Inc()
	}()

	if msg.Sender.UserID == 0 || msg.GroupID == 0 {
		return MessageResult{Outcome: OutcomeSkipped}, nil
	}
	var groups models.ActiveGroups
	if err := m.store.View(ctx, storage.ActiveGroupsCollection, &groups); err != nil {
		return res, err
	}
	group, active := groups[msg.GroupID]
	if !active {
		return MessageResult{Outcome: OutcomeInactive}, nil
	}
	if msg.GroupName == "" {
		msg.GroupName = group.GroupName
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = m.now()
	}
	if !classifier.IsSubstantive(msg.Text, m.minLength) {
		return MessageResult{Outcome: OutcomeSkipped}, nil
	}

	violating, err := m.classifier.Classify(ctx, msg.Text)
	if err != nil {
		return res, fmt.Errorf("classify message %d in group %d: %w", msg.MessageID, msg.GroupID, err)
	}

	err = m.store.WithUser(ctx, msg.Sender.UserID, func(ctx context.Context) error {
		rec, err := m.ledger.Record(ctx, msg, violating)
		if err != nil {
			return err
		}
		res.ViolationCount = rec.ViolationCount
		switch {
		case !rec.Recorded:
			res.Outcome = OutcomeDuplicate
			return nil
		case !violating:
			res.Outcome = OutcomeClean
			return nil
		}
		res.Outcome = OutcomeViolation

		logger.Infof("Violation %d of user %d in group %s", rec.ViolationCount, msg.Sender.UserID, group)
		if msg.MessageID != 0 {
			if err := m.gw.DeleteMessage(ctx, msg.GroupID, msg.MessageID); err != nil {
				logger.Warningf("Failed to delete message %d in group %d: %v", msg.MessageID, msg.GroupID, err)
			}
		}
		who := msg.Sender.DisplayName()
		m.notify.Group(ctx, msg.GroupID, "warn_group", who)
		m.notify.Direct(ctx, msg.Sender.UserID, "warn_direct", who)

		res.Decision = m.policy.Evaluate(rec.ViolationCount)
		if res.Decision == policy.None {
			return nil
		}
		res.Sanction, err = m.exec.Apply(ctx, msg.Sender, res.Decision, sanction.OriginAutomatic)
		return err
	})
	return res, err
}
