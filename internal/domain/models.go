package domain

import "time"

// DefaultImage - картинка-заглушка для постов без изображения.
const DefaultImage = "moon.png"

// DefaultHeading сохраняется, если заголовок не указан.
const DefaultHeading = "No heading"

// User представляет зарегистрированного пользователя блога.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"type:varchar(254)"`
	FirstName    string     `json:"firstName" gorm:"type:varchar(150)"`
	LastName     string     `json:"lastName" gorm:"type:varchar(150)"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	IsStaff      bool       `json:"-" gorm:"not null;default:false"`
	IsSuperuser  bool       `json:"-" gorm:"not null;default:false"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" gorm:"not null"`
	Posts        []*Post    `json:"-" gorm:"foreignKey:AuthorID"` // gorm only
}

// Post представляет запись блога. AuthorID не меняется после создания.
type Post struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	AuthorID        uint       `json:"authorId" gorm:"not null;index"`
	Author          *User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"` // gorm only
	Heading         string     `json:"heading" gorm:"type:varchar(50);not null;default:'No heading'"`
	ShortDefinition string     `json:"shortDefinition" gorm:"type:varchar(200);not null"`
	Text            string     `json:"text" gorm:"type:text;not null"`
	Image           string     `json:"image" gorm:"type:varchar(255);default:'moon.png'"`
	IsPublished     bool       `json:"isPublished" gorm:"not null;index"`
	PubDate         time.Time  `json:"pubDate" gorm:"not null;index"`
	Comments        []*Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
}

// Comment представляет комментарий к посту. Author - это просто строка
// из формы, а не ссылка на User.
type Comment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Author      string    `json:"author" gorm:"type:varchar(100);not null"`
	PostID      uint      `json:"postId" gorm:"not null;index"`
	Text        string    `json:"text" gorm:"type:varchar(400);not null"`
	IsPublished bool      `json:"isPublished" gorm:"not null;default:false;index"`
	PubDate     time.Time `json:"pubDate" gorm:"not null"`
}

// Feedback - отзыв посетителя. В базе не хранится, только уходит письмом.
type Feedback struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Score  int    `json:"score"`
	Reply  bool   `json:"reply"`
}

// PostCommentCount - строка рейтинга самых комментируемых постов.
type PostCommentCount struct {
	PostID   uint   `json:"postId"`
	Heading  string `json:"heading"`
	Comments int64  `json:"comments"`
}

// SiteStats - счётчики для главной страницы.
type SiteStats struct {
	Users         int64              `json:"users"`
	Posts         int64              `json:"posts"`
	Comments      int64              `json:"comments"`
	MostCommented []PostCommentCount `json:"mostCommented"`
}
