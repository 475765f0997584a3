package models

import "time"

// Post status values.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post represents a locally-authored note draft
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID    int64     `gorm:"not null;column:user_id" json:"userId"`
	Title     string    `gorm:"type:varchar(255);not null;column:title" json:"title"`
	Content   string    `gorm:"type:text;not null;column:content" json:"content"`
	Status    string    `gorm:"type:varchar(16);not null;default:'draft';column:status" json:"status"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Image is one ordered image reference attached to a post. Images are held
// by URL only; the bytes live wherever the URL points.
type Image struct {
	ID           int64  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PostID       int64  `gorm:"not null;index;column:post_id" json:"postId"`
	URL          string `gorm:"type:varchar(2048);not null;column:url" json:"url"`
	FileName     string `gorm:"type:varchar(255);column:file_name" json:"fileName"`
	DisplayOrder int    `gorm:"not null;default:0;column:display_order" json:"displayOrder"`
}

// TableName specifies the table name for Image
func (Image) TableName() string {
	return "images"
}

// Tag is a user-chosen tag name
type Tag struct {
	ID   int64  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name string `gorm:"type:varchar(64);not null;uniqueIndex:tags_name_ux;column:name" json:"name"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}

// PostTag links posts to tags
type PostTag struct {
	PostID int64 `gorm:"primaryKey;column:post_id"`
	TagID  int64 `gorm:"primaryKey;column:tag_id"`
}

// TableName specifies the table name for PostTag
func (PostTag) TableName() string {
	return "post_tags"
}

// CompletePost is a post snapshot with its ordered images and tag names,
// as assembled by the repository for publishing. It is not a table.
type CompletePost struct {
	Post
	Images []Image  `json:"images"`
	Tags   []string `json:"tags"`
}

// ImageURLs returns the post's image URLs in display order.
func (p *CompletePost) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	return urls
}
