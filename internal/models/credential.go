package models

import (
	"github.com/postcycle/postcycle/internal/crypto"
	"gorm.io/gorm"
)

var sealer *crypto.TokenSealer

// InitEncryption wires the token sealer used by the LinkedInCredential
// lifecycle hooks. Must be called before any credential reads or writes.
// Passing an empty key leaves tokens unencrypted (local development only).
func InitEncryption(hexKey string) error {
	if hexKey == "" {
		sealer = nil
		return nil
	}
	var err error
	sealer, err = crypto.NewTokenSealer(hexKey)
	return err
}

// LinkedInCredential holds a user's LinkedIn OAuth tokens. Exactly one row
// per user. Tokens are sealed at rest via the BeforeSave/AfterFind hooks.
type LinkedInCredential struct {
	gorm.Model
	UserID       uint   `gorm:"not null;uniqueIndex"`
	AccessToken  string `gorm:"type:text"`
	RefreshToken string `gorm:"type:text"`
	// ExpiresAt is epoch milliseconds, matching what the LinkedIn token
	// endpoint hands back after expires_in arithmetic.
	ExpiresAt int64  `gorm:"not null;default:0"`
	ProfileID string `gorm:"type:text"`
}

// Expired reports whether the access token is past its expiry at nowMillis.
func (c *LinkedInCredential) Expired(nowMillis int64) bool {
	return c.ExpiresAt <= nowMillis
}

// BeforeSave seals tokens before they are written. GCM output differs per
// call (random nonce), so re-saving an unchanged credential rewrites the
// ciphertext; that is fine.
func (c *LinkedInCredential) BeforeSave(tx *gorm.DB) error {
	if sealer == nil {
		return nil
	}

	if c.AccessToken != "" {
		sealed, err := sealer.Seal(c.AccessToken)
		if err != nil {
			return err
		}
		c.AccessToken = sealed
	}
	if c.RefreshToken != "" {
		sealed, err := sealer.Seal(c.RefreshToken)
		if err != nil {
			return err
		}
		c.RefreshToken = sealed
	}
	return nil
}

// AfterFind opens sealed tokens after a load.
func (c *LinkedInCredential) AfterFind(tx *gorm.DB) error {
	if sealer == nil {
		return nil
	}

	if c.AccessToken != "" {
		plain, err := sealer.Open(c.AccessToken)
		if err != nil {
			return err
		}
		c.AccessToken = plain
	}
	if c.RefreshToken != "" {
		plain, err := sealer.Open(c.RefreshToken)
		if err != nil {
			return err
		}
		c.RefreshToken = plain
	}
	return nil
}
