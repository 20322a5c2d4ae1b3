package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/adapter"
	"notification-hub/internal/domain/ports/repository"
	"notification-hub/internal/infra/metrics"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// DispatchUseCase is the fan-out engine: one send request, one quota unit,
// N independent deliveries.
type DispatchUseCase interface {
	// SendMessage relays content to every requested destination on behalf of
	// an already-resolved sender. Per-destination failures are reported as
	// delivery state on the returned message, never as an error; the whole
	// request fails only on quota (domain.ErrRateLimitExceeded) or storage
	// errors. The quota counter moves by exactly 1 when at least one delivery
	// succeeded, by 0 otherwise.
	SendMessage(ctx context.Context, sender *model.User, content string, dests []model.Destination) (*model.Message, error)
}

type dispatchUC struct {
	registry    adapter.PlatformRegistry
	messages    repository.MessageRepository
	limits      RateLimitUseCase
	tm          repository.TransactionManager
	sendTimeout time.Duration
	log         *zerolog.Logger
}

func NewDispatchUseCase(
	registry adapter.PlatformRegistry,
	messages repository.MessageRepository,
	limits RateLimitUseCase,
	tm repository.TransactionManager,
	sendTimeout time.Duration,
	logger *zerolog.Logger,
) *dispatchUC {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &dispatchUC{
		registry:    registry,
		messages:    messages,
		limits:      limits,
		tm:          tm,
		sendTimeout: sendTimeout,
		log:         logger,
	}
}

func (d *dispatchUC) SendMessage(ctx context.Context, sender *model.User, content string, dests []model.Destination) (*model.Message, error) {
	if sender.IsZero() {
		return nil, fmt.Errorf("%w: nil sender", domain.ErrInvalidArgument)
	}
	if len(dests) == 0 {
		return nil, fmt.Errorf("%w: no destinations", domain.ErrInvalidArgument)
	}
	d.log.Info().Str("username", sender.Username).Int("destinations", len(dests)).
		Msg("processing message request")

	var msg *model.Message
	err := d.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Hard precondition gate: nothing below runs once the limit is hit.
		// The counter row stays locked until commit, so concurrent sends from
		// the same user serialize on this step.
		if err := d.limits.Check(ctx, tx, sender); err != nil {
			return err
		}

		m, err := model.NewMessage(ulid.Make().String(), sender.ID, content)
		if err != nil {
			return err
		}

		outcomes := d.fanOut(ctx, sender, m.Content, dests)
		for i, o := range outcomes {
			del := model.NewDelivery(uuid.NewString(), m.ID, dests[i].Platform, o.Destination)
			if o.Delivered() {
				del.MarkSuccess(o.Response)
			} else {
				del.MarkFailed(o.ErrorMessage)
			}
			m.AddDelivery(del)
		}

		if err := d.messages.Save(ctx, tx, m); err != nil {
			return fmt.Errorf("persist message: %w", err)
		}

		// One quota unit per message, not per delivery. All-failed sends do
		// not count.
		if m.HasSuccessfulDelivery() {
			if err := d.limits.Increment(ctx, tx, sender); err != nil {
				return fmt.Errorf("increment counter: %w", err)
			}
		} else {
			d.log.Warn().Str("username", sender.Username).Str("message_id", m.ID).
				Msg("no successful deliveries, counter not incremented")
		}

		msg = m
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimitExceeded) {
			metrics.IncQuotaBlock()
			metrics.IncMessage("rate_limited")
		}
		return nil, err
	}

	if msg.HasSuccessfulDelivery() {
		metrics.IncMessage("delivered")
	} else {
		metrics.IncMessage("failed")
	}
	d.log.Info().Str("message_id", msg.ID).
		Int("successful", msg.SuccessfulDeliveries()).Int("total", len(msg.Deliveries)).
		Msg("message processing completed")
	return msg, nil
}

// fanOut dispatches to all destinations concurrently and returns outcomes in
// request order. Destinations are independent: a slow, failing or panicking
// adapter affects only its own slot.
func (d *dispatchUC) fanOut(ctx context.Context, sender *model.User, content string, dests []model.Destination) []adapter.SendOutcome {
	out := make([]adapter.SendOutcome, len(dests))
	var wg sync.WaitGroup
	for i, dst := range dests {
		wg.Add(1)
		go func(i int, dst model.Destination) {
			defer wg.Done()
			out[i] = d.deliver(ctx, sender, content, dst)
		}(i, dst)
	}
	wg.Wait()
	return out
}

func (d *dispatchUC) deliver(ctx context.Context, sender *model.User, content string, dst model.Destination) (out adapter.SendOutcome) {
	defer func() {
		// Adapters are contract-bound not to panic, but a destination must
		// never take its siblings down with it.
		if rec := recover(); rec != nil {
			d.log.Error().Str("platform", string(dst.Platform)).Interface("panic", rec).
				Msg("adapter panicked")
			out = adapter.Failed(dst.Platform, dst.Target, fmt.Sprintf("panic: %v", rec))
		}
	}()

	svc, err := d.registry.Get(dst.Platform)
	if err != nil {
		// Lookup failures become failed deliveries without any network call.
		d.log.Warn().Str("platform", string(dst.Platform)).Err(err).Msg("platform lookup failed")
		metrics.ObserveDelivery(string(dst.Platform), false, 0)
		return adapter.Failed(dst.Platform, dst.Target, err.Error())
	}

	cctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := time.Now()
	out = svc.Send(cctx, content, dst.Target, sender.Username)
	metrics.ObserveDelivery(string(dst.Platform), out.Delivered(), time.Since(start).Milliseconds())

	if out.Delivered() {
		d.log.Info().Str("platform", string(dst.Platform)).Msg("delivery succeeded")
	} else {
		d.log.Error().Str("platform", string(dst.Platform)).Str("error", out.ErrorMessage).
			Msg("delivery failed")
	}
	return out
}
