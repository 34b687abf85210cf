package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/AzielCF/az-wap/core/database"
	"github.com/AzielCF/az-wap/pkg/apierr"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	loginLockThreshold = 5
	loginLockDuration  = 15 * time.Minute
)

// PortalClaims is the JWT payload issued on successful portal login,
// generalized from a single-role portal session to one bound to the
// caller's organization. The bearer-token resolver in usecase/auth.go does
// not accept these JWTs; org tokens resolve through the org_tokens table.
type PortalClaims struct {
	UserID string `json:"uid"`
	OrgID  string `json:"org_id"`
	jwt.RegisteredClaims
}

type PortalUsecase struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewPortalUsecase(db *gorm.DB, jwtSecret string) *PortalUsecase {
	return &PortalUsecase{db: db, jwtSecret: []byte(jwtSecret)}
}

// Login verifies credentials, enforcing the 5-strikes/15-minute lockout of
// spec §3's User account row, and returns a signed session token.
func (u *PortalUsecase) Login(ctx context.Context, email, password string) (string, error) {
	var user database.UserAccountModel
	if err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return "", apierr.AuthDenied("invalid credentials")
	}

	if user.LockedUntil != nil && time.Now().UTC().Before(*user.LockedUntil) {
		return "", apierr.AuthDenied("account temporarily locked")
	}
	if user.AccountStatus != "approved" {
		return "", apierr.AuthDenied("account is not yet approved")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		u.recordFailedLogin(ctx, user)
		return "", apierr.AuthDenied("invalid credentials")
	}

	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		u.db.WithContext(ctx).Model(&user).Updates(map[string]any{"failed_attempts": 0, "locked_until": nil})
	}

	token, err := u.generateToken(user)
	if err != nil {
		return "", apierr.Internal()
	}
	return token, nil
}

func (u *PortalUsecase) recordFailedLogin(ctx context.Context, user database.UserAccountModel) {
	attempts := user.FailedAttempts + 1
	updates := map[string]any{"failed_attempts": attempts}
	if attempts >= loginLockThreshold {
		lockedUntil := time.Now().UTC().Add(loginLockDuration)
		updates["locked_until"] = lockedUntil
		updates["failed_attempts"] = 0
	}
	u.db.WithContext(ctx).Model(&database.UserAccountModel{}).Where("id = ?", user.ID).Updates(updates)
}

func (u *PortalUsecase) generateToken(user database.UserAccountModel) (string, error) {
	claims := &PortalClaims{
		UserID: user.ID,
		OrgID:  user.OrgID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "az-wap-gateway",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.jwtSecret)
}

// ValidateToken parses and validates a portal session token.
func (u *PortalUsecase) ValidateToken(tokenString string) (*PortalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PortalClaims{}, func(t *jwt.Token) (interface{}, error) {
		return u.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*PortalClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
