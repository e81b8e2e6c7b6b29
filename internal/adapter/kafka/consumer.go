package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
	"github.com/storekit/catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

type ConsumerOpt func(*consumerOpts) error

func ConsumerClientOpt(
	seedBrokers []string, topic, group string,
) ConsumerOpt {
	return func(opts *consumerOpts) error {
		cl, err := kgo.NewClient(
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		)
		if err != nil {
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ConsumerProductsSaverOpt(s port.ProductsSaver) ConsumerOpt {
	return func(opts *consumerOpts) error {
		if s != nil {
			opts.saver = s
			return nil
		}
		return errors.New("consumer products saver is nil")
	}
}

func ConsumerDecodeFnOpt(decodeFn func([]byte, any) error) ConsumerOpt {
	return func(opts *consumerOpts) error {
		if decodeFn != nil {
			opts.decodeFn = decodeFn
			return nil
		}
		return errors.New("consumer decode func is nil")
	}
}

type consumerOpts struct {
	cl       ConsumerClient
	saver    port.ProductsSaver
	decodeFn func([]byte, any) error
}

// An IntakeConsumer reads moderated supplier products from the intake
// topic and saves them into the catalog.
type IntakeConsumer struct {
	cl       ConsumerClient
	saver    port.ProductsSaver
	decodeFn func([]byte, any) error
	errTimer *time.Timer
}

func NewIntakeConsumer(opts ...ConsumerOpt) IntakeConsumer {
	const op = "NewIntakeConsumer"

	if len(opts) == 0 {
		panic(fmt.Errorf("%s: options not set", op)) // develop mistake
	}

	var options consumerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			panic(err) // develop mistake
		}
	}

	return IntakeConsumer{
		cl:       options.cl,
		saver:    options.saver,
		decodeFn: options.decodeFn,
		errTimer: time.NewTimer(0),
	}
}

func (c IntakeConsumer) Close() {
	const op = "IntakeConsumer.Close"
	log := slog.With("op", op)

	log.Info("closing consumer...")
	c.errTimer.Stop()
	c.cl.Close()
	log.Info("consumer is closed")
}

func (c IntakeConsumer) Run(ctx context.Context) {
	const op = "IntakeConsumer.Run"
	log := slog.With("op", op)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					log.Info("context canceled")
					continue
				}
				err = fmt.Errorf("%s: %w", op, err)
				log.Error("failed to consume messages", "err", err)
				c.slowDown()
				continue
			}
			err = c.commit(ctx)
			if err != nil {
				log.Error("failed to commit offset", "err", err)
			}
		}
	}
}

func (c IntakeConsumer) commit(ctx context.Context) error {
	const op = "IntakeConsumer.commit"
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = c.cl.CommitUncommittedOffsets(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c IntakeConsumer) consume(ctx context.Context) error {
	const op = "IntakeConsumer.consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if fetches.Empty() {
		return nil
	}

	ps := c.toProducts(fetches)
	if err := c.saver.SaveProducts(ctx, ps); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c IntakeConsumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "IntakeConsumer.pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err := c.handleErrs(fetches)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fetches, nil
}

func (c IntakeConsumer) handleErrs(fetches kgo.Fetches) error {
	var errsData []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errData := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsData = append(errsData, errData)
		}
	})

	if len(errsData) != 0 {
		return errors.New(strings.Join(errsData, "; "))
	}
	return nil
}

func (c IntakeConsumer) toProducts(fetches kgo.Fetches) (ps []domain.Product) {
	const op = "IntakeConsumer.toProducts"
	log := slog.With("op", op)

	fetches.EachRecord(func(r *kgo.Record) {
		s, err := c.unmarshal(r.Value)
		if err != nil {
			err = fmt.Errorf("%s: %w", op, err)
			log.Error("failed to unmarshal value", "err", err)
			return
		}
		ps = append(ps, supplierToDomain(s))
	})
	return ps
}

func (c IntakeConsumer) unmarshal(v []byte) (s schema.SupplierProductV1, err error) {
	const op = "IntakeConsumer.unmarshal"

	if err := c.decodeFn(v, &s); err != nil {
		return s, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (c IntakeConsumer) slowDown() {
	const timeout = 1 * time.Second
	c.errTimer.Reset(timeout)
	<-c.errTimer.C
}
