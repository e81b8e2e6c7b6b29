package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/lovoo/goka"
	"github.com/storekit/catalog/internal/core/port"
	"github.com/storekit/catalog/pkg/schema"
)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A ruleEventCodec used for serde [schema.ModerationRuleV1]
type ruleEventCodec struct {
	serde Serde
}

func newRuleEventCodec(s Serde) ruleEventCodec {
	return ruleEventCodec{s}
}

func (c ruleEventCodec) Encode(v any) ([]byte, error) {
	const op = "ruleEventCodec.Encode"
	if _, ok := v.(schema.ModerationRuleV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c ruleEventCodec) Decode(data []byte) (any, error) {
	const op = "ruleEventCodec.Decode"
	var s schema.ModerationRuleV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, err
}

// A blockValue represents the blocking flag for a particular SKU
type blockValue bool

// A blockValueCodec used for serde [blockValue]
type blockValueCodec struct{}

func (blockValueCodec) Encode(v any) ([]byte, error) {
	const op = "blockValueCodec.Encode"
	bv, ok := v.(blockValue)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	data := strconv.AppendBool([]byte(nil), bool(bv))
	return data, nil
}

func (blockValueCodec) Decode(data []byte) (any, error) {
	const op = "blockValueCodec.Decode"
	bv, err := strconv.ParseBool(string(data))
	if err != nil {
		return nil, opErr(err, op)
	}
	return blockValue(bv), nil
}

// A supplierEventCodec used for serde [schema.SupplierProductV1]
type supplierEventCodec struct {
	serde Serde
}

func newSupplierEventCodec(s Serde) supplierEventCodec {
	return supplierEventCodec{s}
}

func (c supplierEventCodec) Encode(v any) ([]byte, error) {
	const op = "supplierEventCodec.Encode"
	if _, ok := v.(schema.SupplierProductV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c supplierEventCodec) Decode(data []byte) (any, error) {
	const op = "supplierEventCodec.Decode"
	var s schema.SupplierProductV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, err
}

var _ port.ModerationProcessor = (*ModerationProcessor)(nil)

// A ModerationProcessor persists moderation rule events
// from the stream topic into the group table.
type ModerationProcessor struct {
	opPrefix string
	proc     processor
}

func NewModerationProc(
	seedBrokers []string,
	inputStream string,
	groupTable string,
	ruleSerde Serde,
) (*ModerationProcessor, error) {
	const op = "NewModerationProc"

	var p ModerationProcessor

	gg := goka.DefineGroup(goka.Group(groupTable),
		goka.Input(
			goka.Stream(inputStream),
			newRuleEventCodec(ruleSerde),
			p.processFn,
		),
		goka.Persist(blockValueCodec{}),
	)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.opPrefix = "ModerationProcessor"
	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *ModerationProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ModerationProcessor) Close() {
	p.proc.close()
}

func (p *ModerationProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op))

	event, _ := msg.(schema.ModerationRuleV1)
	v := blockValue(event.Blocked)
	ctx.SetValue(v)
	log.Info(
		"set moderation rule",
		"sku", event.SKU,
		"isBlocked", v,
	)
}

var _ port.IntakeGateProcessor = (*IntakeGateProcessor)(nil)

// An IntakeGateProcessor processes supplier products from the feed
// stream, applying the moderation table and forwarding allowed
// products to the intake topic.
type IntakeGateProcessor struct {
	opPrefix     string
	proc         processor
	joinedTable  goka.Table
	outputStream goka.Stream
}

func NewIntakeGateProc(
	seedBrokers []string,
	group string,
	inputStream string,
	moderationGroupTable string,
	outputTopic string,
	supplierSerde Serde,
) (*IntakeGateProcessor, error) {
	const op = "NewIntakeGateProc"

	var p IntakeGateProcessor

	supplierEventCodec := newSupplierEventCodec(supplierSerde)
	intakeStream := goka.Stream(inputStream)
	joinedTable := goka.GroupTable(goka.Group(moderationGroupTable))
	outputStream := goka.Stream(outputTopic)

	gg := goka.DefineGroup(goka.Group(group),
		goka.Input(intakeStream, supplierEventCodec, p.processFn),
		goka.Join(joinedTable, blockValueCodec{}),
		goka.Output(outputStream, supplierEventCodec),
	)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.opPrefix = "IntakeGateProcessor"
	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}
	p.joinedTable = joinedTable
	p.outputStream = outputStream
	return &p, nil
}

func (p *IntakeGateProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *IntakeGateProcessor) Close() {
	p.proc.close()
}

func (p *IntakeGateProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"

	productV, _ := msg.(schema.SupplierProductV1)
	log := slog.With(
		"op", makeOp(p.opPrefix, op), "sku", productV.SKU,
	)

	v, ok := ctx.Join(p.joinedTable).(blockValue)
	if ok && bool(v) {
		log.Warn("product is blocked")
		return
	}
	ctx.Emit(p.outputStream, productV.SKU, productV)
	log.Info("product is allowed")
}
