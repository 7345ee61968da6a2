package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"blueridge/config"
	"blueridge/database"
	handoffsRepo "blueridge/database/repository/handoffs"
	meetingsRepo "blueridge/database/repository/meetings"
	tokensRepo "blueridge/database/repository/tokens"
	"blueridge/handlers"
	"blueridge/models"
	"blueridge/routes"
	"blueridge/services/booking"
	"blueridge/services/calendar"
	ai "blueridge/services/intelligence"
	"blueridge/services/notification"
	"blueridge/services/oauth"
	"blueridge/services/payment"
	"blueridge/services/scheduling"
	"blueridge/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	loc := cfg.Location()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// storage.
	database.InitDB()
	cache := utils.GetCacheClient()
	defer utils.CloseCache()

	var (
		tokens   tokensRepo.TokenRepository
		meetings meetingsRepo.MeetingRepository
		handoffs handoffsRepo.HandoffRepository
	)
	if database.SupabaseClient != nil {
		tokens = tokensRepo.NewSupabaseTokenRepo(database.SupabaseClient)
		meetings = meetingsRepo.NewSupabaseMeetingRepo(database.SupabaseClient)
		handoffs = handoffsRepo.NewSupabaseHandoffRepo(database.SupabaseClient)
	}

	// calendar.
	googleAuth := oauth.NewGoogleAuth(oauth.Options{
		ClientID:      cfg.GoogleClientID,
		ClientSecret:  cfg.GoogleClientSecret,
		RedirectURL:   cfg.GoogleOAuthRedirectURI,
		StateSecret:   cfg.JWTSecret,
		DefaultOwner:  cfg.DefaultOwnerID,
		EncryptionKey: cfg.TokenEncryptKey,
	}, tokens, logger)
	googleCal := calendar.NewGoogleCalendar(cfg.GoogleCalendarID, loc, googleAuth, logger)

	var feeds []calendar.BusySource
	for _, u := range cfg.ICSFeeds() {
		feeds = append(feeds, calendar.NewICSFeed(u, loc, logger))
	}
	busy := calendar.NewMergedSource(googleCal, logger, feeds...)
	defer func() { _ = busy.Close() }()

	// scheduling.
	hours := models.BusinessHours(cfg.BusinessHours)
	if err := hours.Validate(); err != nil {
		logger.Warn("Business hours contain invalid entries; they will be skipped", zap.Error(err))
	}
	settings := scheduling.Settings{
		Hours:               hours,
		Loc:                 loc,
		BufferMins:          cfg.SlotBufferMins,
		LeadTimeMins:        cfg.LeadTimeMins,
		ReducedLeadTimeMins: cfg.ReducedLeadTimeMins,
		FabricateLeadMins:   cfg.FabricateLeadMins,
		FabricateMaxSlots:   cfg.FabricateMaxSlots,
		FabricateMaxDays:    cfg.FabricateMaxDays,
		AllowFabricated:     cfg.AllowFabricatedSlots,
	}
	availability := scheduling.NewAvailabilityService(scheduling.NewGenerator(busy, loc), settings, logger)

	// booking + email.
	mailer := notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	emails := notification.NewEmailService(mailer, cfg.BookingsFromEmail, loc, logger)
	if !emails.Configured() {
		logger.Info("SMTP not configured; booking emails disabled")
	}
	bookings := booking.NewBookingService(busy, meetings, emails,
		booking.NewRedisReserver(cache, time.Duration(cfg.SlotHoldSeconds)*time.Second),
		booking.Options{
			Strict:           cfg.StrictBooking,
			Debug:            cfg.DebugBooking,
			OwnerEmail:       cfg.OwnerEmail(),
			OwnerNotifyEmail: cfg.OwnerNotifyEmail,
		}, logger)

	// language models.
	var completers []ai.Completer
	if cfg.OpenAIAPIKey != "" {
		completers = append(completers,
			ai.NewOpenAICompleter(ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.Models(), logger))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiCompleter(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Warn("Gemini fallback disabled", zap.Error(err))
		} else {
			defer func() { _ = gemini.Close() }()
			completers = append(completers, gemini)
		}
	}
	var chat ai.ChatService
	if chain := ai.NewChainCompleter(completers...); chain.Len() > 0 {
		logger.Info("Chat enabled", zap.Int("completers", chain.Len()))
		svc := ai.NewChatService(chain, availability, bookings, handoffs,
			ai.NewRedisContextStore(cache, ai.DefaultContextTTL), loc, logger)
		svc.DefaultOwner = cfg.DefaultOwnerID
		svc.ModelOnly = cfg.AIModelOnly
		chat = svc
	} else {
		logger.Warn("No language model API key configured; /api/ai/chat will return 503")
	}

	payments := payment.NewStripeService(payment.Options{
		SecretKey:     cfg.StripeKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceStarter:  cfg.StripePriceStarter,
		PriceGrowth:   cfg.StripePriceGrowth,
		SiteURL:       cfg.SiteURL,
	}, logger)

	// health.
	checks := map[string]utils.HealthCheck{
		"google_calendar": func(ctx context.Context) error {
			_, err := googleAuth.TokenSource(ctx)
			return err
		},
	}
	if cache != nil {
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx).Err() }
	}
	utils.StartHealthMonitor(rootCtx, time.Minute, checks)

	// http.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	hb := handlers.NewHandlerBundle(availability, bookings, chat, googleAuth, payments, cfg.AppBaseURL)
	routes.RegisterRoutes(router, hb, routes.Options{
		AllowOrigins:      config.SplitList(cfg.SiteURL),
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		Logger:            logger,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("timezone", loc.String()))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}
