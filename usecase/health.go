package usecase

import (
	"context"

	"github.com/AzielCF/az-wap/domains/health"
	"github.com/AzielCF/az-wap/providers"
	"gorm.io/gorm"
)

type HealthUsecase struct {
	db    *gorm.DB
	provs providers.Set
}

func NewHealthUsecase(db *gorm.DB, provs providers.Set) *HealthUsecase {
	return &HealthUsecase{db: db, provs: provs}
}

func (u *HealthUsecase) Liveness(ctx context.Context) health.Report {
	return health.Report{Status: health.StatusOK, Ready: true, Components: nil}
}

func (u *HealthUsecase) Readiness(ctx context.Context) health.Report {
	checks := []health.ComponentCheck{u.checkDatabase(ctx)}
	checks = append(checks, u.checkProviders()...)

	ready := true
	overall := health.StatusOK
	for _, c := range checks {
		if c.Status != health.StatusOK {
			ready = false
			overall = health.StatusDegraded
		}
	}
	return health.Report{Status: overall, Ready: ready, Components: checks}
}

func (u *HealthUsecase) checkDatabase(ctx context.Context) health.ComponentCheck {
	sqlDB, err := u.db.DB()
	if err != nil {
		return health.ComponentCheck{Name: "database", Status: health.StatusUnreachable, Detail: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return health.ComponentCheck{Name: "database", Status: health.StatusUnreachable, Detail: err.Error()}
	}
	return health.ComponentCheck{Name: "database", Status: health.StatusOK}
}

// checkProviders reports each configured adapter as ok; adapters are wired
// once at startup (spec §9 "no global registry"), so absence of one is a
// configuration fact rather than a transient failure.
func (u *HealthUsecase) checkProviders() []health.ComponentCheck {
	var out []health.ComponentCheck
	out = append(out, presenceCheck("telephony", u.provs.Telephony != nil))
	out = append(out, presenceCheck("email", u.provs.Email != nil))
	out = append(out, presenceCheck("whatsapp", u.provs.WhatsApp != nil))
	out = append(out, presenceCheck("tts", u.provs.TTS != nil))
	out = append(out, presenceCheck("storage", u.provs.Storage != nil))
	return out
}

func presenceCheck(name string, present bool) health.ComponentCheck {
	if present {
		return health.ComponentCheck{Name: name, Status: health.StatusOK}
	}
	return health.ComponentCheck{Name: name, Status: health.StatusUnreachable, Detail: "adapter not configured"}
}
