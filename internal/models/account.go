package models

import (
	"database/sql"
	"time"
)

// Validity status values for Account.Status.
const (
	StatusUnknown = "unknown"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Account holds one stored platform credential. Status records whether the
// cookie still authenticates; IsActive marks the single account used for
// publishing and crawling. The two are independent: an account can be valid
// without being the one in use.
type Account struct {
	ID            int64        `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name          string       `gorm:"type:varchar(64);not null;uniqueIndex:xhs_accounts_name_ux;column:name" json:"name"`
	Cookie        string       `gorm:"type:text;not null;column:cookie" json:"-"`
	Status        string       `gorm:"type:varchar(16);not null;default:'unknown';column:status" json:"status"`
	IsActive      bool         `gorm:"not null;default:false;column:is_active" json:"isActive"`
	LastCheckedAt sql.NullTime `gorm:"column:last_checked_at" json:"lastCheckedAt"`
	CreatedAt     time.Time    `gorm:"not null;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "xhs_accounts"
}
