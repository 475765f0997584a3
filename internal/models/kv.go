package models

// Kv is a single-row JSON settings slot
type Kv struct {
	Key  string `gorm:"primaryKey;type:text;column:key"`
	Data string `gorm:"type:jsonb;not null;column:data"`
}

// TableName specifies the table name for Kv
func (Kv) TableName() string {
	return "kv"
}

// SettingsKey is the kv row holding operator-configured system settings.
const SettingsKey = "system_settings"
