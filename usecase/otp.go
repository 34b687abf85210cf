package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/providers"
	"gorm.io/gorm"
)

const (
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 5
)

type OTPUsecase struct {
	db    *gorm.DB
	email providers.Email
	wa    providers.WhatsApp
}

func NewOTPUsecase(db *gorm.DB, email providers.Email, wa providers.WhatsApp) *OTPUsecase {
	return &OTPUsecase{db: db, email: email, wa: wa}
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Issue mints a 6-digit code, persists only its hash (the same
// hash-don't-store-plaintext discipline spec §3 mandates for agent
// tokens), and delivers it over whichever channel matches the address
// shape.
func (u *OTPUsecase) Issue(ctx context.Context, contactAddress, purpose string) error {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	row := database.OTPCodeModel{
		ID:             newID(),
		ContactAddress: contactAddress,
		CodeHash:       hashCode(code),
		ExpiresAt:      time.Now().UTC().Add(otpTTL),
		Purpose:        purpose,
		CreatedAt:      time.Now().UTC(),
	}
	if err := u.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
	if isEmail(contactAddress) {
		if u.email != nil {
			_, err = u.email.Send(ctx, providers.EmailRequest{To: contactAddress, Subject: "Verification code", Body: body})
		}
	} else if u.wa != nil {
		_, err = u.wa.SendFreeform(ctx, providers.SmsRequest{To: contactAddress, Body: body})
	}
	return err
}

// Verify consumes a code: it is deleted on successful match and on
// reaching the attempt limit, but left intact (with an incremented
// counter) on a wrong guess within budget.
func (u *OTPUsecase) Verify(ctx context.Context, contactAddress, purpose, code string) (bool, error) {
	var row database.OTPCodeModel
	err := u.db.WithContext(ctx).
		Where("contact_address = ? AND purpose = ?", contactAddress, purpose).
		Order("created_at DESC").First(&row).Error
	if err != nil {
		return false, nil
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		u.db.WithContext(ctx).Delete(&row)
		return false, nil
	}
	if row.Attempts >= otpMaxAttempts {
		u.db.WithContext(ctx).Delete(&row)
		return false, nil
	}
	if row.CodeHash != hashCode(code) {
		u.db.WithContext(ctx).Model(&row).Update("attempts", row.Attempts+1)
		return false, nil
	}
	u.db.WithContext(ctx).Delete(&row)
	return true, nil
}

func isEmail(addr string) bool {
	for _, c := range addr {
		if c == '@' {
			return true
		}
	}
	return false
}
