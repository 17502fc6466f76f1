package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"campbook/internal/app/commands"
	"campbook/internal/app/dto"
	availabilityapp "campbook/internal/app/handlers/availability"
	bookingapp "campbook/internal/app/handlers/booking"
	campsiteapp "campbook/internal/app/handlers/campsites"
	"campbook/internal/app/handlers/notifications"
	pricingapp "campbook/internal/app/handlers/pricing"
	"campbook/internal/app/middleware"
	appoutbox "campbook/internal/app/outbox"
	"campbook/internal/app/policies"
	"campbook/internal/app/queries"
	"campbook/internal/app/uow"
	"campbook/internal/infra/broker/kafka"
	"campbook/internal/infra/config"
	mongostore "campbook/internal/infra/db/mongo"
	"campbook/internal/infra/db/postgres"
	ginserver "campbook/internal/infra/http/gin"
	"campbook/internal/infra/inbox"
	"campbook/internal/infra/notify"
	"campbook/internal/infra/obs"
	"campbook/internal/infra/outbox"
	"campbook/internal/infra/storage/memory"
)

type application struct {
	handlers   ginserver.Handlers
	factory    uow.Factory
	checks     map[string]obs.Check
	background map[string]func(context.Context) error
	closers    []func(context.Context) error

	notifier *notify.LogNotifier
	payments *memory.Payments
}

// storage is the persistence half of the wiring; it differs per STORAGE_MODE.
type storage struct {
	factory     uow.Factory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		checks:     map[string]obs.Check{},
		background: map[string]func(context.Context) error{},
		notifier:   notify.NewLogNotifier(logger),
		payments:   memory.NewPayments(),
	}
	events := &notifications.BookingEvents{Notifier: app.notifier, Logger: logger}

	var (
		st  storage
		err error
	)
	switch cfg.StorageMode {
	case config.StorageMongo:
		st, err = app.wireMongo(ctx, cfg, logger, events)
	case config.StoragePostgres:
		st, err = app.wirePostgres(ctx, cfg, logger, events)
	default:
		sink := func(ctx context.Context, rec appoutbox.EventRecord) error {
			return events.Handle(ctx, rec.Name, rec.Payload)
		}
		st = storage{
			factory:     memory.NewStore(),
			outbox:      memory.NewOutbox(sink, logger),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		}
	}
	if err != nil {
		app.close(context.Background(), logger)
		return nil, err
	}
	app.factory = st.factory

	clock := policies.SystemClock{}
	encoder := appoutbox.JSONEventEncoder{IDGenerator: func() string { return uuid.NewString() }}
	engine := &pricingapp.Engine{UoW: st.factory}

	cmdReg := commands.NewRegistry()
	commands.Register[bookingapp.RequestBookingCommand, *dto.Booking](cmdReg, bookingapp.RequestBookingKey, &bookingapp.RequestBookingHandler{
		Pricing: engine,
		Outbox:  st.outbox,
		Encoder: encoder,
		Clock:   clock,
		Logger:  logger,
	})
	commands.Register[bookingapp.CancelBookingCommand, *dto.BookingActionResult](cmdReg, bookingapp.CancelBookingKey, &bookingapp.CancelBookingHandler{
		Payments: app.payments,
		Outbox:   st.outbox,
		Encoder:  encoder,
		Clock:    clock,
		Logger:   logger,
	})
	lifecycle := &bookingapp.Lifecycle{Payments: app.payments, Outbox: st.outbox, Encoder: encoder, Clock: clock, Logger: logger}
	lifecycle.Register(cmdReg)
	commands.Register[availabilityapp.BlockDatesCommand, *dto.CalendarBlock](cmdReg, availabilityapp.BlockDatesKey, &availabilityapp.BlockDatesHandler{
		Outbox:  st.outbox,
		Encoder: encoder,
		Clock:   clock,
		Logger:  logger,
	})
	commands.Register[availabilityapp.UnblockDatesCommand, *dto.Calendar](cmdReg, availabilityapp.UnblockDatesKey, &availabilityapp.UnblockDatesHandler{
		Outbox:  st.outbox,
		Encoder: encoder,
		Clock:   clock,
		Logger:  logger,
	})

	qryReg := queries.NewRegistry()
	queries.Register[campsiteapp.ListCampsitesQuery, dto.CampsiteCollection](qryReg, campsiteapp.ListCampsitesKey, &campsiteapp.ListCampsitesHandler{UoW: st.factory})
	queries.Register[campsiteapp.GetCampsiteQuery, dto.Campsite](qryReg, campsiteapp.GetCampsiteKey, &campsiteapp.GetCampsiteHandler{UoW: st.factory})
	queries.Register[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityResult](qryReg, availabilityapp.CheckAvailabilityKey, &availabilityapp.CheckAvailabilityHandler{UoW: st.factory, Clock: clock})
	queries.Register[availabilityapp.GetCalendarQuery, dto.Calendar](qryReg, availabilityapp.GetCalendarKey, &availabilityapp.GetCalendarHandler{UoW: st.factory})
	queries.Register[pricingapp.QuoteQuery, dto.PriceBreakdown](qryReg, pricingapp.QuoteKey, &pricingapp.QuoteHandler{Pricing: engine})
	queries.Register[bookingapp.GetBookingQuery, dto.Booking](qryReg, bookingapp.GetBookingKey, &bookingapp.GetBookingHandler{UoW: st.factory})
	queries.Register[bookingapp.RefundPreviewQuery, dto.RefundDTO](qryReg, bookingapp.RefundPreviewKey, &bookingapp.RefundPreviewHandler{UoW: st.factory, Clock: clock})

	validator := middleware.NewStructValidator()
	cmdBus := middleware.ChainCommands(
		cmdReg,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Idempotency(st.idempotency, nil, clock.Now),
		middleware.OutboxFlush(st.outbox),
		middleware.Transaction(st.factory),
	)
	qryBus := middleware.ChainQueries(
		qryReg,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)

	app.handlers = ginserver.Handlers{
		Campsites: ginserver.CampsiteHandler{Commands: cmdBus, Queries: qryBus, Logger: logger},
		Bookings:  ginserver.BookingHandler{Commands: cmdBus, Queries: qryBus, Logger: logger},
	}
	logger.Debug("buses wired", "commands", cmdReg.Keys(), "storage", cfg.StorageMode)
	return app, nil
}

func (a *application) wireMongo(ctx context.Context, cfg config.Config, logger *slog.Logger, events kafka.EventHandler) (storage, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, fmt.Errorf("connect mongo: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.checks["mongo"] = client.Ping
	if err := client.EnsureIndexes(ctx); err != nil {
		return storage{}, fmt.Errorf("ensure indexes: %w", err)
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return storage{}, fmt.Errorf("idempotency store: %w", err)
	}
	box := outbox.NewStore(client.DB)
	if err := a.wireKafka(cfg, logger, events, box, inbox.NewStore(client.DB, cfg.KafkaGroup)); err != nil {
		return storage{}, err
	}
	return storage{
		factory:     mongostore.NewFactory(client.DB),
		outbox:      box,
		idempotency: idem,
	}, nil
}

func (a *application) wirePostgres(ctx context.Context, cfg config.Config, logger *slog.Logger, events kafka.EventHandler) (storage, error) {
	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return storage{}, err
	}
	a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
	a.checks["postgres"] = pool.Ping
	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		return storage{}, err
	}
	logger.Info("postgres migrations applied", "count", applied)

	idem := postgres.NewIdempotencyStore(pool, cfg.IdempotencyTTL)
	a.background["idempotency-purge"] = func(ctx context.Context) error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if n, err := idem.Purge(ctx); err != nil {
					logger.WarnContext(ctx, "idempotency purge failed", "error", err)
				} else if n > 0 {
					logger.DebugContext(ctx, "idempotency keys purged", "count", n)
				}
			}
		}
	}
	box := postgres.NewOutboxStore(pool)
	if err := a.wireKafka(cfg, logger, events, box, postgres.NewInboxStore(pool, cfg.KafkaGroup)); err != nil {
		return storage{}, err
	}
	return storage{
		factory:     postgres.NewFactory(pool),
		outbox:      box,
		idempotency: idem,
	}, nil
}

// wireKafka relays the durable outbox to Kafka and feeds booking events back to the notifier.
func (a *application) wireKafka(cfg config.Config, logger *slog.Logger, events kafka.EventHandler, queue outbox.Queue, seen kafka.Inbox) error {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, sarama.NewConfig())
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return producer.Close() })

	worker := &outbox.Worker{
		Store:       queue,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		MaxAttempts: len(cfg.RetryBackoff) + 1,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	a.background["outbox"] = worker.Run

	dispatcher := kafka.CloudEventDispatcher{Inbox: seen, Handler: events, Logger: logger}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, sarama.NewConfig(), dispatcher, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
	topics := []string{outbox.TopicFor(cfg.KafkaTopicPrefix, "booking")}
	a.background["notifications"] = func(ctx context.Context) error { return consumer.Run(ctx, topics) }
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *application) close(ctx context.Context, logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
