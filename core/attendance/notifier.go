package attendance

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// Notifier is the delivery executor: it turns one lifecycle event into
// a batch of per-recipient sends, isolating failures so one bad
// address never aborts the rest of the batch.
type Notifier struct {
	store    SessionStore
	provider *Provider
	composer Composer
	logger   core.Logger
}

func NewNotifier(store SessionStore, provider *Provider, composer Composer, logger core.Logger) *Notifier {
	return &Notifier{
		store:    store,
		provider: provider,
		composer: composer,
		logger:   logger,
	}
}

// Deliver sends one message to one recipient on one channel. No
// retries here; it captures the outcome and returns it.
func (n *Notifier) Deliver(ctx context.Context, evt Event, rcp Recipient, ch Channel) DeliveryAttempt {
	att := DeliveryAttempt{Recipient: rcp, Channel: ch}

	content, err := n.composer.Compose(evt, rcp, ch)
	if err != nil {
		att.Err = err
		n.logger.Error(fmt.Sprintf("composing %s %s message: %v", evt.Kind, ch, err), err)
		return att
	}

	addr := core.CleanString(rcp.Email, true)
	if ch == ChannelSMS {
		addr = core.CleanString(rcp.Phone)
	}
	if err := n.provider.Send(ctx, ch, addr, content); err != nil {
		att.Err = err
		n.logger.Error(fmt.Sprintf("delivering %s %s to %s: %v", evt.Kind, ch, addr, err), err)
	}
	return att
}

func (n *Notifier) deliverBatch(ctx context.Context, evt Event, sels []Selection) BatchReport {
	rep := BatchReport{Event: evt}
	for _, sel := range sels {
		for _, ch := range sel.Channels {
			rep.Attempts = append(rep.Attempts, n.Deliver(ctx, evt, sel.Recipient, ch))
		}
	}
	return rep
}

// Notify runs one synchronous notification batch for the session.
// The present-set is re-read from the store on every call.
func (n *Notifier) Notify(ctx context.Context, kind EventKind, sessionID, token string) (BatchReport, error) {
	sess, err := n.store.GetSession(ctx, sessionID)
	if err != nil {
		return BatchReport{}, errors.Wrapf(err, "loading session %s", sessionID)
	}
	enrolled, err := n.store.GetEnrolledStudents(ctx, sess.Course.ID)
	if err != nil {
		return BatchReport{}, errors.Wrapf(err, "loading roster of course %s", sess.Course.ID)
	}

	var present map[string]struct{}
	if kind != EventStarted {
		if present, err = n.store.GetPresentStudents(ctx, sessionID); err != nil {
			return BatchReport{}, errors.Wrapf(err, "loading present students of session %s", sessionID)
		}
	}

	evt := Event{Kind: kind, Session: sess, Token: token}
	return n.deliverBatch(ctx, evt, SelectRecipients(kind, enrolled, present)), nil
}

// DeliverExpiring is the scheduled-job entry point: scheduler backends
// call it when a reminder fires, and retry the whole batch when it
// errors. Recipients are recomputed from fresh store state on every
// attempt, so late check-ins drop out of later attempts too. A session
// already closed at fire time is done, not an error.
func (n *Notifier) DeliverExpiring(ctx context.Context, sessionID, token string) error {
	sess, err := n.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			n.logger.Warn(fmt.Sprintf("reminder fired for unknown session %s; dropping", sessionID))
			return nil
		}
		return errors.Wrapf(err, "loading session %s", sessionID)
	}
	if sess.Closed {
		n.logger.Info(fmt.Sprintf("session %s already closed; reminder dropped", sessionID))
		return nil
	}

	rep, err := n.Notify(ctx, EventExpiring, sessionID, token)
	if err != nil {
		return err
	}
	if failed := rep.Failed(); failed > 0 {
		return errors.Errorf("%d of %d expiring deliveries failed for session %s", failed, len(rep.Attempts), sessionID)
	}
	return nil
}
