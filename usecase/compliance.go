package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/domains/audit"
	"github.com/AzielCF/az-wap/domains/compliance"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"gorm.io/gorm"
)

// contentThreats is the content-screen keyword/pattern list (spec §4.2
// step 2). Kept intentionally small and explicit rather than pulled from
// an external corpus, matching the gateway's "gate, don't moderate" scope.
var contentThreats = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bkill you\b`),
	regexp.MustCompile(`(?i)\bbomb threat\b`),
	regexp.MustCompile(`(?i)\bI will hurt\b`),
}

type ComplianceUsecase struct {
	db     *gorm.DB
	audit  audit.IAppender
	tzLoad func(name string) (*time.Location, error)
}

func NewComplianceUsecase(db *gorm.DB, appender audit.IAppender) *ComplianceUsecase {
	return &ComplianceUsecase{db: db, audit: appender, tzLoad: time.LoadLocation}
}

func (u *ComplianceUsecase) Evaluate(ctx context.Context, req compliance.Request) error {
	if err := u.checkDNC(ctx, req); err != nil {
		return err
	}
	if err := u.checkContent(req); err != nil {
		return err
	}
	if req.Channel == "sms" || req.Channel == "voice" {
		if err := u.checkTCPA(req); err != nil {
			return err
		}
	}
	if req.Channel == "voice" {
		u.checkRecordingConsent(ctx, req)
	}
	return nil
}

func (u *ComplianceUsecase) checkDNC(ctx context.Context, req compliance.Request) error {
	var count int64
	q := u.db.WithContext(ctx).Model(&database.DNCEntryModel{}).Where("org_id = ?", req.OrgID)
	if strings.Contains(req.ToAddress, "@") {
		q = q.Where("email_address = ?", req.ToAddress)
	} else {
		q = q.Where("phone_number = ?", req.ToAddress)
	}
	if err := q.Count(&count).Error; err != nil {
		return apierr.Internal()
	}
	if count > 0 {
		return apierr.ComplianceDenied("Do Not Contact")
	}
	return nil
}

func (u *ComplianceUsecase) checkContent(req compliance.Request) error {
	for _, re := range contentThreats {
		if re.MatchString(req.Body) {
			return apierr.ComplianceDenied("message content blocked by screening policy")
		}
	}
	return nil
}

// checkTCPA enforces the 08:00-21:00 local-time window (spec §4.2 step 3).
func (u *ComplianceUsecase) checkTCPA(req compliance.Request) error {
	loc := time.UTC
	zoneName := req.Timezone
	if zoneName == "" {
		zoneName = defaultZoneForCountry(req.CallerCountry)
	}
	if zoneName != "" {
		if l, err := u.tzLoad(zoneName); err == nil {
			loc = l
		}
	}
	hour := time.Now().In(loc).Hour()
	if hour < 8 || hour >= 21 {
		return apierr.ComplianceDenied("outside permitted contact window (08:00-21:00 local time)")
	}
	return nil
}

// checkRecordingConsent warns but never blocks (spec §4.2 step 4).
func (u *ComplianceUsecase) checkRecordingConsent(ctx context.Context, req compliance.Request) {
	if !req.AllPartyConsentJurisdiction || req.ConsentAnnounced {
		return
	}
	if u.audit == nil {
		return
	}
	_ = u.audit.Append(ctx, audit.Entry{
		EventType: "recording_consent_missing",
		Actor:     "system",
		Target:    req.ToAddress,
		Details:   `{"channel":"` + req.Channel + `"}`,
		OrgID:     req.OrgID,
	})
}

func defaultZoneForCountry(country string) string {
	switch country {
	case "IL":
		return "Asia/Jerusalem"
	case "GB":
		return "Europe/London"
	case "US", "":
		return "America/New_York"
	default:
		return "UTC"
	}
}
