// Package view はページごとの型付きビューモデルとhtml/templateによる描画を提供する。
// ユーザー投稿テキストはテンプレートへ渡す前に必ずサニタイザを通す。
package view

import (
	"html/template"
	"time"

	"github.com/miyobam/myb/internal/activity"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/notice"
)

// Page は全ページ共通のヘッダー情報。
type Page struct {
	Title     string
	Active    string // ナビゲーションのハイライト対象ページ
	Theme     model.Theme
	SignedIn  bool
	IsAdmin   bool
	Username  string
	CSRFToken string
	Notices   []notice.Notice
}

// GenreCard はジャンル一覧の1件。
type GenreCard struct {
	Name  string
	Count int
}

// BookOfWeekBanner は今週のおすすめ書籍のバナー。
type BookOfWeekBanner struct {
	Book        model.Book
	Description template.HTML
}

// HomeData はホームページのビューモデル。
type HomeData struct {
	Page
	Featured   []model.Book
	Trending   []model.Book
	Genres     []GenreCard
	TotalBooks int
	BookOfWeek *BookOfWeekBanner
}

// LibraryData は書籍一覧ページのビューモデル。
type LibraryData struct {
	Page
	Books  []model.Book
	Genres []GenreCard
	Genre  string
	Status string
	Search string
	Sort   string
}

// BookDetailData は書籍詳細ページのビューモデル。
type BookDetailData struct {
	Page
	Book            model.Book
	Synopsis        template.HTML
	Chapters        []model.Chapter
	Purchased       bool
	Liked           bool
	ContinueChapter int
}

// ReaderData は読書ページのビューモデル。
type ReaderData struct {
	Page
	Book          model.Book
	Chapter       model.Chapter
	Paragraphs    []template.HTML
	HasPrev       bool
	HasNext       bool
	PrevChapter   int
	NextChapter   int
	TotalChapters int
}

// ReadingCard はマイライブラリの「読書中」タブの1件。
type ReadingCard struct {
	Book           model.Book
	CurrentChapter int
	LastRead       time.Time
}

// MyLibraryData はマイライブラリページのビューモデル。
type MyLibraryData struct {
	Page
	Tab       string
	Reading   []ReadingCard
	Purchased []model.Book
	Favorites []model.Book
}

// ProfileData はプロフィールページのビューモデル。
type ProfileData struct {
	Page
	User           model.User
	Bio            template.HTML
	ReadingCount   int
	PurchasedCount int
}

// StoryCard はPDFストーリーの表示1件。
type StoryCard struct {
	Story         model.PDFStory
	Description   template.HTML
	RatingAverage float64
	RatingCount   int
}

// PDFLibraryData はPDFライブラリページのビューモデル。承認済みのみを載せる。
type PDFLibraryData struct {
	Page
	Stories []StoryCard
}

// UploadStoryData はPDF投稿ページのビューモデル。
type UploadStoryData struct {
	Page
	MaxSizeMB int64
}

// PostCard はフォーラムスレッドの表示1件。
type PostCard struct {
	Post    model.ForumPost
	Content template.HTML
}

// ForumData はフォーラムページのビューモデル。
type ForumData struct {
	Page
	Category   string
	Categories []string
	Posts      []PostCard
}

// ContestEntry はコンテストのエントリ1件と得票数。
type ContestEntry struct {
	StoryID string
	Title   string
	Votes   int
}

// ContestCard はコンテストの表示1件。VotedFor は現在のユーザーの投票先。
type ContestCard struct {
	Contest    model.Contest
	Entries    []ContestEntry
	VotedFor   string
	TotalVotes int
	Ended      bool
}

// ContestsData はコンテストページのビューモデル。
type ContestsData struct {
	Page
	Contests []ContestCard
}

// StaticData はお問い合わせ・ヘルプなどの静的ページのビューモデル。
type StaticData struct {
	Page
	Heading string
	Body    string
}

// AdminDashboardData は管理ダッシュボードのビューモデル。
type AdminDashboardData struct {
	Page
	Stats activity.DashboardStats
	Feed  []activity.Entry
}

// AdminApproveData は審査待ちPDFタブのビューモデル。
type AdminApproveData struct {
	Page
	Pending []StoryCard
}

// AdminManageData は全PDF管理タブのビューモデル。
type AdminManageData struct {
	Page
	PendingCount  int
	ApprovedCount int
	RejectedCount int
	Stories       []StoryCard
}

// AdminUsersData はユーザー管理タブのビューモデル。
type AdminUsersData struct {
	Page
	Users []model.User
}

// ReportRow は通報1件とその対象ストーリー名。
type ReportRow struct {
	Report     model.StoryReport
	StoryTitle string
}

// AdminReportsData は通報管理タブのビューモデル。
type AdminReportsData struct {
	Page
	Reports []ReportRow
}

// AdminMessagesData はメッセージタブのビューモデル。
type AdminMessagesData struct {
	Page
	Messages    []model.Message
	UnreadCount int
}

// AdminContestsData はコンテスト管理タブのビューモデル。
type AdminContestsData struct {
	Page
	Contests []ContestCard
	Stories  []model.PDFStory // 新規コンテストのエントリ候補
}

// AdminAnalyticsData は分析タブのビューモデル。
type AdminAnalyticsData struct {
	Page
	Analytics activity.Analytics
}

// AdminSettingsData は設定タブのビューモデル。
type AdminSettingsData struct {
	Page
}
