package models

import "gorm.io/gorm"

// Review holds one user's star rating plus their comment thread. There is at
// most one record per user; it is created lazily on the first rating or first
// comment, whichever comes first, and never deleted as a whole.
//
// Name, Email and EmailMasked are a snapshot of the user's identity at
// creation time and are not kept in sync with later profile edits.
type Review struct {
	gorm.Model
	UserID      uint      `json:"userID" gorm:"uniqueIndex;not null"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	EmailMasked string    `json:"emailMasked"`
	Rating      int       `json:"rating" gorm:"not null;default:0;check:rating >= 0 AND rating <= 5"` // 0 = unrated, comment-only record
	Comments    []Comment `json:"comments" gorm:"foreignKey:ReviewID;references:ID;constraint:OnDelete:CASCADE"`
}

// Comment is a top-level entry in a review's thread. Comment IDs are global,
// so handlers address a comment without knowing its parent review. UserID
// always equals the owning review's UserID.
type Comment struct {
	gorm.Model
	ReviewID uint    `json:"reviewID" gorm:"index;not null"`
	UserID   uint    `json:"userID" gorm:"index;not null"`
	Text     string  `json:"text" gorm:"type:text;not null"`
	Replies  []Reply `json:"replies" gorm:"foreignKey:CommentID;references:ID;constraint:OnDelete:CASCADE"`
}

const (
	ReplyAuthorAdmin = "admin"
	ReplyAuthorUser  = "user"
)

// Reply is append-only: replies are never edited or removed. AuthorRole tags
// which variant the author fields describe; projection emits adminId/adminName
// or userId/userName, never both.
type Reply struct {
	gorm.Model
	CommentID  uint   `json:"commentID" gorm:"index;not null"`
	Text       string `json:"text" gorm:"type:text;not null"`
	AuthorRole string `json:"authorRole" gorm:"type:varchar(10);not null"`
	AuthorID   uint   `json:"authorID" gorm:"index;not null"`
	AuthorName string `json:"authorName"`
}
