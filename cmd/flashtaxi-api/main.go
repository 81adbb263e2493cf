// README: Entry point; loads config, wires stores, brokers and services, serves HTTP and websockets.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"flashtaxi/internal/config"
	"flashtaxi/internal/events"
	httptransport "flashtaxi/internal/http"
	"flashtaxi/internal/infra"
	"flashtaxi/internal/logging"
	"flashtaxi/internal/maps"
	"flashtaxi/internal/modules/driver"
	"flashtaxi/internal/modules/pricing"
	"flashtaxi/internal/modules/ride"
	"flashtaxi/internal/modules/rider"
	"flashtaxi/internal/modules/support"
	"flashtaxi/internal/realtime"
	"flashtaxi/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// closers run in reverse registration order on shutdown.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var cleanup closers
	defer cleanup.run()

	// Stores: MongoDB when configured, in-memory otherwise.
	var (
		rideStore   ride.Store    = ride.NewMemoryStore()
		riderStore  rider.Store   = rider.NewMemoryStore()
		driverStore driver.Store  = driver.NewMemoryStore()
		eventLog    ride.EventLog = ride.NopEventLog{}
		quota       support.Quota = support.NewMemoryQuota()
		mongoDB     *mongo.Database
	)
	if cfg.Mongo.URI != "" {
		client, err := infra.NewMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		cleanup.add(func() { _ = client.Disconnect(context.Background()) })
		mongoDB = client.Database(cfg.Mongo.Database)

		rs, ds, us := ride.NewMongoStore(mongoDB), driver.NewMongoStore(mongoDB), rider.NewMongoStore(mongoDB)
		for name, ensure := range map[string]func(context.Context) error{
			"rides": rs.EnsureIndexes, "drivers": ds.EnsureIndexes, "riders": us.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
			log.Debug("indexes ensured", "collection", name)
		}
		rideStore, driverStore, riderStore = rs, ds, us
		log.Info("mongo connected", "database", cfg.Mongo.Database)
	} else {
		log.Warn("FLASH_MONGO_URI not set; using in-memory stores")
	}

	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		cleanup.add(pool.Close)
		eventLog = ride.NewPGEventLog(pool)
		quota = support.NewPGQuota(pool)
		log.Info("postgres connected")
	}

	drivers := driver.NewService(driverStore)
	if cfg.Seed {
		n, err := drivers.SeedIfEmpty(ctx, driver.DemoDrivers())
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("demo drivers seeded", "count", n)
		}
	}

	// Auth: our own JWTs first, Firebase ID tokens when a project is configured.
	jwt, err := infra.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	verifier := infra.ChainVerifier{jwt}
	var fbApp *firebase.App
	if cfg.Auth.FirebaseProjectID != "" {
		fbApp, err = infra.NewFirebaseApp(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentials)
		if err != nil {
			return err
		}
		fbVerifier, err := infra.NewFirebaseVerifier(ctx, fbApp)
		if err != nil {
			return err
		}
		verifier = append(verifier, fbVerifier)
	}

	// Realtime hub over Redis pub/sub when configured.
	var bus realtime.Bus
	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return err
		}
		cleanup.add(func() { _ = rdb.Close() })
		bus = realtime.NewRedisBus(rdb, cfg.Redis.Channel, log)
		log.Info("redis bus enabled", "channel", cfg.Redis.Channel)
	}
	hub := realtime.NewHub(bus, drivers, log)
	if err := hub.Start(ctx); err != nil {
		return err
	}
	cleanup.add(func() { _ = hub.Close() })

	publisher, err := buildFanout(ctx, cfg, log, hub, drivers, fbApp, &cleanup)
	if err != nil {
		return err
	}

	mapsClient, err := maps.NewClient(cfg.Maps.APIKey)
	if err != nil {
		return err
	}
	geo := maps.NewGateway(mapsClient, maps.Config{
		Bounds:   types.Bounds{MinLat: cfg.Maps.MinLat, MaxLat: cfg.Maps.MaxLat, MinLng: cfg.Maps.MinLng, MaxLng: cfg.Maps.MaxLng},
		Language: cfg.Maps.Language,
		Region:   cfg.Maps.Region,
	})

	rides := ride.NewService(ride.Deps{
		Store:     rideStore,
		Events:    eventLog,
		Geo:       geo,
		Pricing:   pricing.NewService(pricing.DefaultRateCard),
		Drivers:   drivers,
		Publisher: publisher,
		Log:       log,
	})

	var mailer rider.Mailer = rider.NewLogMailer(log)
	if cfg.OTP.SMTP.Host != "" {
		s := cfg.OTP.SMTP
		mailer = rider.NewSMTPMailer(s.Host, s.Port, s.Username, s.Password, s.From)
	}
	riders := rider.NewService(riderStore, mailer, jwt, log).WithTTL(cfg.OTP.TTL)

	var assistant support.Assistant
	if cfg.AI.GeminiKey != "" {
		ga, err := support.NewGeminiAssistant(ctx, cfg.AI.GeminiKey)
		if err != nil {
			return err
		}
		cleanup.add(func() { _ = ga.Close() })
		assistant = ga
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier: verifier,
		Rides:    rides,
		Drivers:  drivers,
		Riders:   riders,
		Geo:      geo,
		Support:  support.NewService(assistant, quota, log),
		Hub:      hub,
		Log:      log,
	})
	return httptransport.NewServer(cfg.HTTP, router, log).Run(ctx)
}

// buildFanout attaches the realtime hub plus every configured broker sink.
func buildFanout(ctx context.Context, cfg config.Config, log *slog.Logger, hub *realtime.Hub,
	drivers *driver.Service, fbApp *firebase.App, cleanup *closers) (events.Publisher, error) {
	fan := events.NewFanout(log).Add("realtime", hub)

	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		cleanup.add(func() { _ = kp.Close() })
		fan.Add("kafka", kp)
		log.Info("kafka sink enabled", "topic", cfg.Kafka.Topic)
	}
	if cfg.Rabbit.URL != "" {
		rb, err := infra.NewRabbit(cfg.Rabbit.URL)
		if err != nil {
			return nil, err
		}
		cleanup.add(func() { _ = rb.Close() })
		rp, err := events.NewRabbitPublisher(rb.Channel, cfg.Rabbit.Exchange)
		if err != nil {
			return nil, err
		}
		fan.Add("rabbitmq", rp)
		log.Info("rabbitmq sink enabled", "exchange", cfg.Rabbit.Exchange)
	}
	if fbApp != nil {
		msg, err := infra.NewMessaging(ctx, fbApp)
		if err != nil {
			return nil, err
		}
		fan.Add("push", events.NewPushPublisher(msg, drivers))
		log.Info("push sink enabled")
	}
	return fan, nil
}
