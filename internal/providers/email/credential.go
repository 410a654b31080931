package email

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Credential is a user's linked mailbox. PrefersMailbox selects the mailbox
// strategy ahead of the transactional API.
type Credential struct {
	UserID         string    `gorm:"primaryKey;type:text" json:"user_id"`
	Email          string    `gorm:"type:text" json:"email"`
	AccessToken    string    `gorm:"type:text" json:"-"`
	RefreshToken   string    `gorm:"type:text" json:"-"`
	TokenExpiry    time.Time `json:"token_expiry"`
	PrefersMailbox bool      `gorm:"not null;default:false" json:"prefers_mailbox"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Credential) TableName() string { return "mail_credentials" }

type CredentialRepository interface {
	Find(ctx context.Context, db *gorm.DB, userID string) (*Credential, error)
	Save(ctx context.Context, db *gorm.DB, cred *Credential) error
}

type credentialRepo struct{}

func NewCredentialRepository() CredentialRepository {
	return &credentialRepo{}
}

func (r *credentialRepo) Find(ctx context.Context, db *gorm.DB, userID string) (*Credential, error) {
	var c Credential
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, email, access_token, refresh_token, token_expiry, prefers_mailbox, updated_at
		 FROM mail_credentials WHERE user_id = ?`,
		userID,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.UserID == "" {
		return nil, nil
	}
	return &c, nil
}

func (r *credentialRepo) Save(ctx context.Context, db *gorm.DB, cred *Credential) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "access_token", "refresh_token", "token_expiry", "prefers_mailbox", "updated_at",
		}),
	}).Create(cred).Error
}
