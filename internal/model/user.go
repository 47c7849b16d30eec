package model

import "time"

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// User はプラットフォーム利用ユーザーを表す。
// Passwordはデモアカウント照合専用で、セッションへ保存する前に必ず除去する。
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"password,omitempty"`
	Role           Role      `json:"role"`
	Bio            string    `json:"bio,omitempty"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	PostsCount     int       `json:"posts_count"`
	IsVerified     bool      `json:"is_verified"`
	JoinedDate     time.Time `json:"joined_date"`
}

// WithoutPassword はパスワードを除去したコピーを返す。
// セッションへ保存するユーザー情報は必ずこれを通す。
func (u User) WithoutPassword() User {
	u.Password = ""
	return u
}

// IsAdmin は管理者権限を持つかどうかを返す。
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session はブラウザセッションを表す。
// ユーザーのスナップショット（パスワード除去済み）とバックエンド用ベアラートークンを保持する。
type Session struct {
	ID        string
	User      User
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsAdmin はセッションのユーザーが管理者かどうかを返す。
func (s *Session) IsAdmin() bool {
	return s != nil && s.User.IsAdmin()
}

// Message はユーザーから管理者への問い合わせメッセージを表す。
type Message struct {
	ID         string    `json:"id,omitempty"`
	FromUserID string    `json:"from_user_id,omitempty"`
	FromName   string    `json:"from_name,omitempty"`
	ToUserID   string    `json:"to_user_id"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	SentAt     time.Time `json:"sent_at,omitempty"`
}

// Preferences はセッション単位で永続化されるUI設定を表す。
// ブラウザ版でlocalStorageに保存していたthemeとお気に入り書籍の対応物。
type Preferences struct {
	SessionID  string
	Theme      Theme
	LikedBooks []string
	UpdatedAt  time.Time
}

// Theme は表示テーマを表す。
type Theme string

const (
	// ThemeLight はライトテーマ。
	ThemeLight Theme = "light"
	// ThemeDark はダークテーマ。
	ThemeDark Theme = "dark"
)
