package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AzielCF/az-wap/ui/rest"
	"github.com/AzielCF/az-wap/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Run the gateway's HTTP surface",
	Long:  `Serves webhook ingress, the REST API mirror, health, and metrics endpoints.`,
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := globalConfig

	app := fiber.New(fiber.Config{
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.Recovery())
	app.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	app.Use(middleware.IPFilter(cfg.Hardening.AdminIPAllowlist, cfg.Hardening.IPDenylist))
	if cfg.App.Debug {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Hardening.CORSAllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max: cfg.Hardening.HTTPRateLimitPerIP,
	}))

	// Public surface: carrier webhooks authenticate by signature, not
	// bearer token; health/metrics/storage/login have no principal yet.
	rest.InitRestWebhook(app, dispatchUsecase, provs, replayGuard, cfg.App.BaseUrl, cfg.Providers.LineChannelSecret, cfg.App.DemoMode)
	rest.InitRestHealth(app, healthUsecase)
	rest.InitRestMetrics(app, metricsRegistry)
	rest.InitRestStorage(app, cfg.Paths.Storages)
	rest.InitRestPortal(app, portalUsecase)

	protected := app.Group("", middleware.Auth(authUsecase))
	rest.InitRestCredential(protected, credentialUsecase)
	rest.InitRestDispatch(protected, dispatchUsecase, deadLetterUsecase)
	rest.InitRestProvision(protected, provisionUsecase)
	rest.InitRestBilling(protected, billingUsecase)
	rest.InitRestOrg(protected, orgUsecase)
	rest.InitRestAgent(protected, agentUsecase)
	rest.InitRestErasure(protected, erasureUsecase)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] received termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] error during shutdown: %v", err)
		}
		StopApp()
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("failed to start REST server: ", err.Error())
	}
}
