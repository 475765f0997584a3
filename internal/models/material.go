package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a JSON array of strings in a jsonb column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// SourceUser identifies the external author a material was crawled from
type SourceUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Value implements driver.Valuer
func (u SourceUser) Value() (driver.Value, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (u *SourceUser) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*u = SourceUser{}
		return nil
	case []byte:
		return json.Unmarshal(v, u)
	case string:
		return json.Unmarshal([]byte(v), u)
	default:
		return fmt.Errorf("cannot scan %T into SourceUser", src)
	}
}

// Material is one ingested external note. (UserID, NoteID) is unique:
// re-ingesting an already-seen note is a no-op, never an overwrite. Rows
// are immutable after insert.
type Material struct {
	ID         int64      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID     int64      `gorm:"not null;uniqueIndex:materials_user_note_ux;column:user_id" json:"userId"`
	NoteID     string     `gorm:"type:varchar(64);not null;uniqueIndex:materials_user_note_ux;column:note_id" json:"noteId"`
	Title      string     `gorm:"type:text;column:title" json:"title"`
	Content    string     `gorm:"type:text;column:content" json:"content"`
	Images     StringList `gorm:"type:jsonb;column:images" json:"images"`
	Tags       StringList `gorm:"type:jsonb;column:tags" json:"tags"`
	SourceUser SourceUser `gorm:"type:jsonb;column:source_user" json:"sourceUser"`
	Likes      int64      `gorm:"not null;default:0;column:likes" json:"likes"`
	Collects   int64      `gorm:"not null;default:0;column:collects" json:"collects"`
	Comments   int64      `gorm:"not null;default:0;column:comments" json:"comments"`
	CreatedAt  time.Time  `gorm:"not null;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Material
func (Material) TableName() string {
	return "materials"
}
