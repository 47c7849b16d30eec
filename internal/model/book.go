// Package model はドメインモデルを定義する。
package model

import "time"

// Book はオンライン読書用の書籍を表す。
// reads/likesカウンタはクライアント側のread-modify-writeで更新されるため、
// 同時更新が競合した場合に片方が失われることを許容する。
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	CoverURL      string    `json:"cover_url,omitempty"`
	Synopsis      string    `json:"synopsis,omitempty"`
	Price         float64   `json:"price"`
	Rating        float64   `json:"rating"`
	Reads         int       `json:"reads"`
	Likes         int       `json:"likes"`
	Featured      bool      `json:"featured"`
	Status        string    `json:"status,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	PDFURL        string    `json:"pdf_url,omitempty"`
	PublishedDate time.Time `json:"published_date"`
}

// Chapter は書籍の1章を表す。
// バックエンドからは全件取得し、book_idでクライアント側フィルタする。
type Chapter struct {
	ID            string `json:"id"`
	BookID        string `json:"book_id"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Content       string `json:"content,omitempty"`
	WordCount     int    `json:"word_count"`
}

// Purchase は購入記録を表す。追記専用で、存在そのものが閲覧権を意味する。
type Purchase struct {
	ID            string    `json:"id,omitempty"`
	UserID        string    `json:"user_id"`
	BookID        string    `json:"book_id"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	PurchaseDate  time.Time `json:"purchase_date"`
}

// ReadingProgress はユーザー・書籍ごとの読書位置を表す。
// (user, book)につき1行。ローカルに既知ならPATCH、なければPOSTのupsertパターン。
type ReadingProgress struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"user_id"`
	BookID         string    `json:"book_id"`
	CurrentChapter int       `json:"current_chapter"`
	LastRead       time.Time `json:"last_read"`
}

// MobilePaymentStatus はモバイルマネー決済の状態を表す。
type MobilePaymentStatus string

const (
	// MobilePaymentPending は決済承認待ち。
	MobilePaymentPending MobilePaymentStatus = "pending"
	// MobilePaymentApproved は承認済み。
	MobilePaymentApproved MobilePaymentStatus = "approved"
)

// MobilePayment はモバイルマネー決済の記録を表す。
// 作成時はpendingで、決済ワーカーが一定遅延の後に承認する。
type MobilePayment struct {
	ID            string              `json:"id,omitempty"`
	UserID        string              `json:"user_id"`
	BookID        string              `json:"book_id"`
	Amount        float64             `json:"amount"`
	Provider      string              `json:"provider"`
	PhoneNumber   string              `json:"phone_number"`
	TransactionID string              `json:"transaction_id"`
	Status        MobilePaymentStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at,omitempty"`
}

// BookOfWeek は今週のおすすめ書籍を表す。
type BookOfWeek struct {
	ID          string    `json:"id,omitempty"`
	BookID      string    `json:"book_id"`
	WeekStart   time.Time `json:"week_start"`
	WeekEnd     time.Time `json:"week_end"`
	FeaturedBy  string    `json:"featured_by,omitempty"`
	Description string    `json:"description"`
}
