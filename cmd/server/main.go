package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/config"
	"github.com/parkease/parkease/internal/database"
	"github.com/parkease/parkease/internal/gateway"
	"github.com/parkease/parkease/internal/handler"
	"github.com/parkease/parkease/internal/middleware"
	"github.com/parkease/parkease/internal/notifier"
	"github.com/parkease/parkease/internal/notify"
	"github.com/parkease/parkease/internal/queue"
	"github.com/parkease/parkease/internal/repository"
	"github.com/parkease/parkease/internal/router"
	"github.com/parkease/parkease/internal/service"
	"github.com/parkease/parkease/internal/store/memory"
	"github.com/parkease/parkease/internal/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	var (
		lots     service.LotStore
		bookings service.BookingStore
		payments service.PaymentStore
		users    service.UserStore
		tokens   service.TokenStore
	)
	switch cfg.StoreDriver {
	case "memory":
		log.Printf("using in-memory stores; data will not survive a restart")
		lots = memory.NewLotStore()
		bookings = memory.NewBookingStore()
		payments = memory.NewPaymentStore()
		users = memory.NewUserStore()
		tokens = memory.NewTokenStore()
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		lots = repository.NewParkingLotRepo(db)
		bookings = repository.NewBookingRepo(db)
		payments = repository.NewPaymentRepo(db)
		users = repository.NewUserRepo(db)
		tokens = repository.NewTokenRepo(db)
	}

	var gw gateway.Gateway
	if cfg.RazorpayKeyID != "" {
		gw = gateway.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpaySecret, "")
	} else {
		log.Printf("RAZORPAY_KEY_ID not set; using fake payment gateway")
		gw = gateway.NewFakeGateway()
	}

	var notif service.Notifier
	if cfg.AMQPURL != "" {
		notif = notifier.NewPublisher(cfg.AMQPURL)
		sender := notify.NewSender(cfg.ResendAPIKey, cfg.EmailFrom)
		go queue.StartBookingConsumer(cfg.AMQPURL, sender)
	} else {
		log.Printf("RABBITMQ_URL not set; booking notifications disabled")
	}

	bookingSvc := service.NewBookingService(lots, bookings, users, notif)
	paymentSvc := service.NewPaymentService(payments, bookingSvc, gw, cfg.RazorpaySecret, cfg.Currency)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	// Redis backs the rate limiter and the browse cache; nil degrades
	// both to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Lots:     handler.NewLotHandler(lots, bookingSvc),
		Bookings: handler.NewBookingHandler(bookingSvc),
		Payments: handler.NewPaymentHandler(paymentSvc),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s store=%s)", addr, cfg.Env, cfg.StoreDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
