package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/storekit/catalog/config"
	"github.com/storekit/catalog/internal/adapter/blobstore"
	"github.com/storekit/catalog/internal/adapter/httphandler"
	"github.com/storekit/catalog/internal/adapter/kafka"
	"github.com/storekit/catalog/internal/adapter/mail"
	"github.com/storekit/catalog/internal/adapter/storage"
	"github.com/storekit/catalog/internal/adapter/token"
	"github.com/storekit/catalog/internal/core/port"
	"github.com/storekit/catalog/internal/core/service"
	"github.com/storekit/catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type serdes struct {
	supplier schema.Serde
	rule     schema.Serde
	event    schema.Serde
}

type producers struct {
	events     kafka.CatalogEventsProducer
	moderation kafka.ModerationProducer
}

type processors struct {
	moderation port.ModerationProcessor
	intakeGate port.IntakeGateProcessor
}

type coreServices struct {
	catalog    service.Catalog
	images     service.ProductImages
	moderation service.Moderation
	auth       service.Auth
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	sqlDB      storage.SQLDB
	blobs      blobstore.ImageStore
	serdes     serdes
	producers  producers
	processors processors
	consumer   kafka.IntakeConsumer
	services   coreServices
	httpServer httphandler.Server
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initCoreServices()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	ctx := app.ctx

	srClient, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	supplierSS := app.cfg.Broker.Topics.SupplierProducts + "-value"
	supplierSerde, err := schema.NewSerdeSupplierProductV1(
		ctx,
		schema.SubjectOpt(supplierSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	ruleSS := app.cfg.Broker.Topics.ModerationStream + "-value"
	ruleSerde, err := schema.NewSerdeModerationRuleV1(
		ctx,
		schema.SubjectOpt(ruleSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	eventSS := app.cfg.Broker.Topics.CatalogEvents + "-value"
	eventSerde, err := schema.NewSerdeCatalogEventV1(
		ctx,
		schema.SubjectOpt(eventSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.supplier = supplierSerde
	app.serdes.rule = ruleSerde
	app.serdes.event = eventSerde
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics

	sqlDB, err := storage.NewSQLDB(ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.sqlDB = sqlDB

	blobs, err := blobstore.New(app.cfg.HDFS.Address, app.cfg.HDFS.BaseDir)
	if err != nil {
		app.fallDown(op, err)
	}
	app.blobs = blobs

	eventsProducer, err := kafka.NewCatalogEventsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.CatalogEvents),
		kafka.ProducerEncoderOpt(app.serdes.event),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	moderationProducer, err := kafka.NewModerationProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.ModerationStream),
		kafka.ProducerEncoderOpt(app.serdes.rule),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.producers.events = eventsProducer
	app.producers.moderation = moderationProducer
}

func (app *App) initCoreServices() {
	productsRepo := storage.NewProductsRepository(app.sqlDB)
	usersRepo := storage.NewUsersRepository(app.sqlDB)

	tokenTTL := time.Duration(app.cfg.Auth.TokenTTLMin) * time.Minute
	tokens := token.NewJWTIssuer(app.cfg.Auth.JWTSecret, tokenTTL)

	mailer := mail.New(
		app.cfg.SMTP.Host, app.cfg.SMTP.Port,
		app.cfg.SMTP.User, app.cfg.SMTP.Password,
		app.cfg.SMTP.From, app.cfg.SMTP.VerifyURL,
	)

	app.services.catalog = service.NewCatalog(productsRepo)
	app.services.images = service.NewProductImages(
		productsRepo, app.blobs, app.producers.events,
	)
	app.services.moderation = service.NewModeration(app.producers.moderation)
	app.services.auth = service.NewAuth(usersRepo, tokens, mailer)
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics
	groups := app.cfg.Broker.Consumers

	moderationProc, err := kafka.NewModerationProc(
		seedBrokers,
		topics.ModerationStream,
		topics.ModerationTable,
		app.serdes.rule,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	intakeGateProc, err := kafka.NewIntakeGateProc(
		seedBrokers,
		groups.IntakeGateGroup,
		topics.SupplierProducts,
		topics.ModerationTable,
		topics.CatalogIntake,
		app.serdes.supplier,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.processors.moderation = moderationProc
	app.processors.intakeGate = intakeGateProc

	app.consumer = kafka.NewIntakeConsumer(
		kafka.ConsumerClientOpt(
			seedBrokers, topics.CatalogIntake, groups.IntakeSaverGroup,
		),
		kafka.ConsumerProductsSaverOpt(app.services.catalog),
		kafka.ConsumerDecodeFnOpt(app.serdes.supplier.Decode),
	)

	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.services.catalog, app.services.catalog)
	httphandler.RegisterImages(mux, app.services.images, app.blobs)
	httphandler.RegisterAuth(mux, app.services.auth)
	httphandler.RegisterModeration(mux, app.services.moderation)

	handler := httphandler.AllowContent(mux)
	app.httpServer = httphandler.NewServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(2)
	go app.processors.moderation.Run(app.ctx, stopFn, &wg)
	go app.processors.intakeGate.Run(app.ctx, stopFn, &wg)
	wg.Wait()

	go app.consumer.Run(app.ctx)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.consumer.Close()
	app.processors.intakeGate.Close()
	app.processors.moderation.Close()
	app.producers.events.Close()
	app.producers.moderation.Close()
	app.sqlDB.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
