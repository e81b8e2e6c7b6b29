package kafka

import (
	"context"
	"log/slog"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
	"github.com/storekit/catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

var _ port.CatalogEventsProducer = (*CatalogEventsProducer)(nil)

// A CatalogEventsProducer used for produce [domain.CatalogEvent]
type CatalogEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewCatalogEventsProducer(
	opts ...ProducerOpt,
) (CatalogEventsProducer, error) {
	const op = "NewCatalogEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CatalogEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "CatalogEventsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return CatalogEventsProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p CatalogEventsProducer) Close() {
	p.producer.close()
}

func (p CatalogEventsProducer) ProduceEvent(
	ctx context.Context, ev domain.CatalogEvent,
) error {
	const op = "ProduceEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(ev)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, &r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p CatalogEventsProducer) createRecord(
	v domain.CatalogEvent,
) (r kgo.Record, err error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return kgo.Record{}, opErr(err, p.opPrefix, op)
	}
	msgKey := []byte(s.Kind)
	r = kgo.Record{Key: msgKey, Value: b}

	return r, nil
}

func (CatalogEventsProducer) toSchema(
	v domain.CatalogEvent,
) schema.CatalogEventV1 {
	return eventToSchemaV1(v)
}

var _ port.ModerationProducer = (*ModerationProducer)(nil)

// A ModerationProducer used for produce [domain.ModerationRule]
type ModerationProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewModerationProducer(
	opts ...ProducerOpt,
) (ModerationProducer, error) {
	const op = "NewModerationProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ModerationProducer{}, opErr(err, op)
		}
	}

	opPrefix := "ModerationProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return ModerationProducer{
		producer: p,
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p ModerationProducer) Close() {
	p.producer.close()
}

func (p ModerationProducer) ProduceRule(
	ctx context.Context, rule domain.ModerationRule,
) error {
	const op = "ProduceRule"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(rule)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, &r); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p ModerationProducer) createRecord(
	v domain.ModerationRule,
) (r kgo.Record, err error) {
	const op = "createRecord"

	s := p.toSchema(v)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return kgo.Record{}, opErr(err, p.opPrefix, op)
	}
	msgKey := []byte(s.SKU)
	r = kgo.Record{Key: msgKey, Value: b}

	return r, nil
}

func (ModerationProducer) toSchema(
	v domain.ModerationRule,
) schema.ModerationRuleV1 {
	return ruleToSchemaV1(v)
}
