package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"vpn-subscription-backend/internal/config"
	"vpn-subscription-backend/internal/domain/ports/adapter"
	pg "vpn-subscription-backend/internal/infra/db/postgres"
	"vpn-subscription-backend/internal/infra/geo"
	"vpn-subscription-backend/internal/infra/i18n"
	"vpn-subscription-backend/internal/infra/logging"
	"vpn-subscription-backend/internal/infra/mail"
	"vpn-subscription-backend/internal/infra/metrics"
	"vpn-subscription-backend/internal/infra/payment"
	"vpn-subscription-backend/internal/infra/rates"
	red "vpn-subscription-backend/internal/infra/redis"
	"vpn-subscription-backend/internal/infra/sched"
	"vpn-subscription-backend/internal/infra/security"
	"vpn-subscription-backend/internal/infra/web"
	"vpn-subscription-backend/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, static geo)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txManager := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	paymentCache := red.NewPaymentCache(redisClient)

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; falling back to dev key (INSECURE)")
		encKey = "0123456789abcdef0123456789abcdef"
	}
	encSvc, err := security.NewEncryptionService(encKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption")
	}

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	transRepo := pg.NewTransactionRepo(pool)
	couponRepo := pg.NewCouponRepo(pool)
	partnerRepo := pg.NewPartnerRepo(pool)
	tariffRepo := pg.NewTariffRepo(pool)

	// ---- Adapters ----
	gateway := payment.NewFreekassaGateway(cfg.Freekassa)
	rateSource := rates.NewCBRRateSource(cfg.Rates, redisClient, logger)
	mailer := mail.NewLogMailer(cfg.Mail.From, cfg.Runtime.Dev, logger)

	var countryResolver adapter.CountryResolver
	if cfg.Runtime.Dev {
		countryResolver = &geo.StaticResolver{ISO: cfg.Geo.DefaultISO}
	} else {
		countryResolver = geo.NewHTTPResolver(cfg.Geo, logger)
	}

	// ---- i18n ----
	bundle, err := i18n.NewBundle(i18n.LocalesFS)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Use cases ----
	checkPolicy := usecase.NewCheckPolicy(rateLimiter, paymentCache, cfg.FixEmails)
	couponUC := usecase.NewCouponUseCase(couponRepo)
	pricingUC := usecase.NewPricingUseCase(tariffRepo)
	userUC := usecase.NewUserUseCase(userRepo, txManager, countryResolver, logger)
	entitlementUC := usecase.NewEntitlementUseCase(userRepo, couponRepo, txManager, logger)
	verifier := usecase.NewWebhookVerifier(cfg.Freekassa.ShopID, cfg.Freekassa.Secret2, cfg.Freekassa.AllowedIPs, rateSource)
	tariffUC := usecase.NewTariffUseCase(tariffRepo, paymentCache, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, transRepo, logger)
	notifUC := usecase.NewNotificationUseCase(userRepo, couponUC, mailer, bundle, logger)
	pageUC := usecase.NewPageUseCase(userRepo, bundle, cfg.Server.FrontendBaseURL)

	core := usecase.NewPaymentCore(
		checkPolicy, couponUC, pricingUC, userUC, entitlementUC, verifier,
		transRepo, userRepo, partnerRepo, couponRepo,
		gateway, mailer, countryResolver,
		bundle, cfg.Server.BaseURL, logger,
	)
	standardFlow := usecase.NewPaymentFlow(usecase.FlowStandard, core)
	trialFlow := usecase.NewPaymentFlow(usecase.FlowTrial, core)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Security.AdminSecret, cfg.Security.AdminPassword, !cfg.Runtime.Dev, "", cfg.Security.SessionTTL)
	server := web.NewServer(
		standardFlow, trialFlow, pageUC, couponUC, tariffUC, statsUC,
		encSvc, auth, bundle, cfg.Server.FrontendBaseURL, logger,
	)

	// ---- Cron ----
	scheduler := sched.New(notifUC, cfg.Cron, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler")
	}
	defer scheduler.Stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := server.Start(ctx, addr); err != nil {
		logger.Error().Err(err).Msg("http server stopped")
	}
}
