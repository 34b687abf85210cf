/*
AZ-WAP - Open Source WhatsApp Web API
Copyright (C) 2025-2026 Aziel Cruzado <contacto@azielcruzado.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package cmd

import (
	"os"
	"time"

	"github.com/AzielCF/az-wap/core/config"
	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/pkg/replay"
	"github.com/AzielCF/az-wap/pkg/utils"
	"github.com/AzielCF/az-wap/providers"
	"github.com/AzielCF/az-wap/usecase"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	globalConfig *config.Config
	db           *gorm.DB
	serverID     string

	provs providers.Set

	authUsecase       *usecase.AuthUsecase
	agentUsecase      *usecase.AgentUsecase
	auditUsecase      *usecase.AuditUsecase
	billingUsecase    *usecase.BillingUsecase
	complianceUsecase *usecase.ComplianceUsecase
	credentialUsecase *usecase.CredentialUsecase
	deadLetterUsecase *usecase.DeadLetterUsecase
	dispatchUsecase   *usecase.DispatchUsecase
	erasureUsecase    *usecase.ErasureUsecase
	healthUsecase     *usecase.HealthUsecase
	metricsRegistry   *usecase.MetricsRegistry
	orgUsecase        *usecase.OrgUsecase
	otpUsecase        *usecase.OTPUsecase
	portalUsecase     *usecase.PortalUsecase
	rateLimitUsecase  *usecase.RateLimitUsecase
	routingUsecase    *usecase.RoutingUsecase
	provisionUsecase  *usecase.ProvisionUsecase
	voiceRegistry     *usecase.VoiceSessionRegistry

	replayGuard *replay.Guard
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Short: "Multi-tenant communication gateway",
	Long:  `A gateway that dispatches and ingests SMS, WhatsApp, voice, and email traffic on behalf of provisioned agents.`,
}

func init() {
	_ = godotenv.Load()

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(initApp)
}

func initApp() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	globalConfig = cfg

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	if err := os.MkdirAll(cfg.Paths.Storages, 0755); err != nil {
		logrus.WithError(err).Fatal("[STARTUP] failed to create storage directory")
	}

	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)

	gormDB, err := database.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[STARTUP] failed to open database: %v", err)
	}
	if err := database.Migrate(gormDB); err != nil {
		logrus.Fatalf("[STARTUP] failed to migrate database: %v", err)
	}
	db = gormDB

	if cfg.App.DemoMode {
		provs = providers.NewMockSet(cfg.App.BaseUrl)
		logrus.Info("[STARTUP] demo mode enabled, using mock provider adapters")
	} else {
		provs = providers.Set{
			Telephony: providers.NewTwilioTelephony(cfg.Providers.TwilioAccountSID, cfg.Providers.TwilioAuthToken),
			Email:     providers.NewResendEmail(cfg.Providers.ResendAPIKey),
			WhatsApp:  providers.NewTwilioWhatsApp(cfg.Providers.TwilioAccountSID, cfg.Providers.TwilioAuthToken),
			TTS:       providers.NewElevenLabsTTS(cfg.Providers.ElevenLabsAPIKey),
			Storage:   providers.NewDiskStorage(cfg.Paths.Storages, cfg.App.BaseUrl),
		}
	}

	replayGuard = replay.NewGuard(4096, 10*time.Minute)

	auditUsecase = usecase.NewAuditUsecase(db)
	authUsecase = usecase.NewAuthUsecase(db, cfg.Security.MasterSecurityToken, cfg.App.DemoMode)
	agentUsecase = usecase.NewAgentUsecase(db)
	billingUsecase = usecase.NewBillingUsecase(db)
	complianceUsecase = usecase.NewComplianceUsecase(db, auditUsecase)
	credentialUsecase = usecase.NewCredentialUsecase(db)
	deadLetterUsecase = usecase.NewDeadLetterUsecase(db)
	erasureUsecase = usecase.NewErasureUsecase(db)
	healthUsecase = usecase.NewHealthUsecase(db, provs)
	metricsRegistry = usecase.NewMetricsRegistry(auditUsecase, logrus.StandardLogger(), provs, cfg.Defaults.AdminAlertEmail, cfg.Defaults.AdminAlertPhone)
	orgUsecase = usecase.NewOrgUsecase(db)
	otpUsecase = usecase.NewOTPUsecase(db, provs.Email, provs.WhatsApp)
	portalUsecase = usecase.NewPortalUsecase(db, cfg.Security.JWTSecret)
	rateLimitUsecase = usecase.NewRateLimitUsecase(db)
	routingUsecase = usecase.NewRoutingUsecase(db)
	provisionUsecase = usecase.NewProvisionUsecase(db, provs.Telephony, auditUsecase, logrus.StandardLogger(), cfg.App.BaseUrl, cfg.Defaults.EmailDomain)
	voiceRegistry = usecase.NewVoiceSessionRegistry()

	voiceDefaults := usecase.VoiceDefaults{Greeting: cfg.Defaults.VoiceGreeting, Voice: cfg.Defaults.VoiceVoice, Language: cfg.Defaults.VoiceLanguage}
	dispatchUsecase = usecase.NewDispatchUsecase(db, agentUsecase, routingUsecase, complianceUsecase, rateLimitUsecase, deadLetterUsecase, auditUsecase, provs, logrus.StandardLogger(), voiceRegistry, voiceDefaults)

	logrus.WithField("server_id", serverID).Info("[STARTUP] gateway initialized")
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of all subsystems.
func StopApp() {
	logrus.Info("[APP] stopping application...")
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	logrus.Info("[APP] application stopped cleanly.")
}
