package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/config"
	"github.com/iliyamo/charter-fleet-booking/internal/database"
	"github.com/iliyamo/charter-fleet-booking/internal/handler"
	"github.com/iliyamo/charter-fleet-booking/internal/middleware"
	"github.com/iliyamo/charter-fleet-booking/internal/queue"
	"github.com/iliyamo/charter-fleet-booking/internal/repository"
	"github.com/iliyamo/charter-fleet-booking/internal/router"
	queue_publisher "github.com/iliyamo/charter-fleet-booking/internal/service"
	"github.com/iliyamo/charter-fleet-booking/internal/weather"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs the response cache, the rate limiter and the forecast
	// cache. nil means run without them.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis: unavailable, caching and rate limiting disabled")
	}

	reservations := repository.NewReservationRepo(db)
	rules := repository.NewRuleRepo(db)
	calendar := repository.NewCalendarRepo(db)
	boats := repository.NewBoatRepo(db)

	settings := booking.Settings{
		MaxAdvanceDays:   cfg.MaxAdvanceDays,
		MinNoticeHours:   cfg.MinNoticeHours,
		BufferMinutes:    cfg.BufferMinutes,
		OpenMinute:       cfg.OpenMinute,
		CloseMinute:      cfg.CloseMinute,
		MinDurationHours: cfg.MinDurationHours,
		MaxDurationHours: cfg.MaxDurationHours,
		SlotStepMinutes:  cfg.SlotStepMinutes,
		BaseRate:         cfg.BaseRate,
		TaxPercent:       cfg.TaxPercent,
		TaxInclusive:     cfg.TaxInclusive,
		FleetFallback:    cfg.FleetSize,
	}
	policy := booking.RefundPolicy{
		Unit:             booking.RefundUnit(cfg.RefundUnit),
		FullThreshold:    cfg.FullRefundAt,
		PartialThreshold: cfg.PartialRefundAt,
		PartialPercent:   cfg.PartialRefundPct,
	}

	gate := booking.NewCalendarGate(calendar)
	engine := booking.NewAvailabilityEngine(settings, reservations, boats, gate)
	matcher := booking.NewRuleMatcher(rules)
	orch := booking.NewOrchestrator(settings, policy, db, reservations, boats, engine, matcher, queue_publisher.NewPublisher())

	var forecast *weather.Client
	if cfg.WeatherURL != "" {
		var fcache weather.Cache = weather.NewMemoryCache()
		if rdb != nil {
			fcache = weather.NewRedisCache(rdb, "fleet")
		}
		ttl := time.Duration(cfg.WeatherCacheTTL) * time.Minute
		forecast = weather.NewClient(cfg.WeatherURL, cfg.WeatherLat, cfg.WeatherLon, ttl, fcache)
	}

	// Consume reservation events into the booking log in the background.
	go func() {
		if err := queue.StartConsumer(); err != nil {
			log.Printf("reservation-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	public := handler.NewPublicHandler(engine, orch, boats)
	reservationH := handler.NewReservationHandler(orch, reservations)
	calendarH := handler.NewCalendarHandler(calendar, forecast)
	ruleH := handler.NewRuleHandler(rules)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, public,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterCustomer(e, reservationH, cfg.JWTSecret)
	router.RegisterAdmin(e, reservationH, calendarH, ruleH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
