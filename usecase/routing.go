package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/AzielCF/az-wap/core/database"
	"gorm.io/gorm"
)

// countryPrefixes is a static longest-prefix-match table from E.164 calling
// codes to ISO-3166 alpha-2 country codes. It is intentionally small,
// covering the markets this gateway actually provisions numbers for;
// unmatched prefixes fall back to US per spec.
var countryPrefixes = []struct {
	prefix  string
	country string
}{
	{"972", "IL"},
	{"44", "GB"},
	{"52", "MX"},
	{"55", "BR"},
	{"49", "DE"},
	{"33", "FR"},
	{"34", "ES"},
	{"39", "IT"},
	{"91", "IN"},
	{"81", "JP"},
	{"86", "CN"},
	{"61", "AU"},
	{"1", "US"},
}

func countryFromE164(recipient string) string {
	digits := strings.TrimPrefix(recipient, "+")
	best := "US"
	bestLen := 0
	for _, p := range countryPrefixes {
		if strings.HasPrefix(digits, p.prefix) && len(p.prefix) > bestLen {
			best = p.country
			bestLen = len(p.prefix)
		}
	}
	return best
}

type RoutingUsecase struct {
	db *gorm.DB
}

func NewRoutingUsecase(db *gorm.DB) *RoutingUsecase {
	return &RoutingUsecase{db: db}
}

// ResolveFromNumber implements spec §4.4's resolveFromNumber.
func (u *RoutingUsecase) ResolveFromNumber(ctx context.Context, orgID, agentPhone, recipient, channel string) (string, error) {
	var pool []database.NumberPoolModel
	if err := u.db.WithContext(ctx).Where("org_id = ?", orgID).Find(&pool).Error; err != nil {
		return "", err
	}

	var capable []database.NumberPoolModel
	for _, n := range pool {
		if hasCapability(n.Capabilities, channel) {
			capable = append(capable, n)
		}
	}
	if len(capable) == 0 {
		if agentPhone != "" {
			return agentPhone, nil
		}
		return "", nil
	}

	country := countryFromE164(recipient)
	var matches []database.NumberPoolModel
	for _, n := range capable {
		if n.CountryCode == country {
			matches = append(matches, n)
		}
	}
	if len(matches) > 0 {
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].IsDefault != matches[j].IsDefault {
				return matches[i].IsDefault // true (default) sorts first
			}
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		})
		return matches[0].PhoneNumber, nil
	}

	for _, n := range capable {
		if n.IsDefault {
			return n.PhoneNumber, nil
		}
	}

	if agentPhone != "" {
		return agentPhone, nil
	}
	return "", nil
}

func hasCapability(capsJSON, channel string) bool {
	// Voice and SMS are the only capabilities a number itself carries;
	// email/whatsapp/line senders are allocated through other pools.
	if channel != "sms" && channel != "voice" {
		return false
	}
	var caps []string
	if err := json.Unmarshal([]byte(capsJSON), &caps); err != nil {
		return false
	}
	for _, c := range caps {
		if c == channel {
			return true
		}
	}
	return false
}
