package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bitful-pannul/kinogate/docs"
	"github.com/bitful-pannul/kinogate/internal/bot"
	"github.com/bitful-pannul/kinogate/internal/common/config"
	"github.com/bitful-pannul/kinogate/internal/common/logger"
	"github.com/bitful-pannul/kinogate/internal/common/middleware"
	gatehttp "github.com/bitful-pannul/kinogate/internal/features/gate/delivery/http"
	"github.com/bitful-pannul/kinogate/internal/features/gate/repository/memory"
	gateservice "github.com/bitful-pannul/kinogate/internal/features/gate/service"
	"github.com/bitful-pannul/kinogate/internal/platform/eth"
	"github.com/bitful-pannul/kinogate/internal/platform/telegram"
	"github.com/bitful-pannul/kinogate/internal/service/ethbalance"
	"github.com/bitful-pannul/kinogate/internal/service/invites"
	"github.com/bitful-pannul/kinogate/internal/service/sigverify"
)

// @title           Kinogate API
// @version         1.0
// @description     Token-gated invite issuance for a private Telegram chat. A visitor signs the challenge with their wallet, the gate checks the on-chain balance and mints a single-use invite link.

// @BasePath  /api/v1

// @tag.name gate
// @tag.description Signature submission and gate parameters

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// Refuse to serve with a partial gate configuration.
		logger.Init("kinogate", true)
		logger.Fatal().Err(err).Msg("config load failed")
	}

	logger.Init("kinogate", cfg.Debug)
	logger.Info().
		Uint64("chain_id", cfg.Gate.ChainID).
		Str("contract", cfg.ContractAddress().Hex()).
		Uint64("min_amount", cfg.Gate.MinAmount).
		Msg("Starting kinogate")

	ethClient, err := eth.Open(ctx, cfg.Gate.RPCURL, cfg.Gate.ChainID)
	if err != nil {
		logger.Fatal().Err(err).Msg("eth rpc connection failed")
	}
	defer ethClient.Close()

	tg := telegram.NewClient(cfg.Telegram.BotToken)
	issuer := invites.NewService(tg, cfg.Gate.PrivateChatID)
	// Missing credentials or admin rights surface loudly now rather than
	// on the first verified visitor, but only config problems abort startup.
	probeTelegram(ctx, tg, issuer)

	sessions := memory.New(cfg.Gate.SessionTTL)
	defer sessions.Close()

	verifier := sigverify.NewService(cfg.Gate.Challenge)
	oracle := ethbalance.NewService(ethClient, cfg.ContractAddress(), cfg.Gate.CallTimeout)
	gate := gateservice.NewService(sessions, verifier, oracle, issuer, cfg.Gate.MinAmount)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	handler := gatehttp.NewHandler(gate, tg, gatehttp.GateParams{
		Challenge: cfg.Gate.Challenge,
		ChainID:   cfg.Gate.ChainID,
		Contract:  cfg.ContractAddress().Hex(),
		MinAmount: cfg.Gate.MinAmount,
	})
	handler.Register(router.Group("/api/v1"))

	// The sign page the /start link points at.
	router.StaticFile("/", "./web/index.html")
	router.StaticFile("/main.js", "./web/main.js")

	if cfg.Debug {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	gateBot := bot.New(tg, gate, bot.Config{
		PrivateChatID: cfg.Gate.PrivateChatID,
		BaseURL:       cfg.Gate.BaseURL,
		ChainID:       cfg.Gate.ChainID,
		Contract:      cfg.ContractAddress().Hex(),
		MinAmount:     cfg.Gate.MinAmount,
		PollTimeout:   cfg.Telegram.PollTimeout,
	})
	go func() {
		if err := gateBot.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("bot loop stopped")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
}
