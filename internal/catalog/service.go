// Package catalog は書籍カタログの閲覧・検索・いいね・おすすめ管理を提供する。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/miyobam/myb/internal/fixtures"
	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/tables"
)

// SortOrder は一覧のソート種別を表す。
type SortOrder string

const (
	// SortPopular は読了数降順。
	SortPopular SortOrder = "popular"
	// SortRecent は公開日降順。
	SortRecent SortOrder = "recent"
	// SortRating は評価降順。
	SortRating SortOrder = "rating"
	// SortTitle はタイトル昇順。
	SortTitle SortOrder = "title"
)

const (
	// featuredLimit はホームの注目書籍の最大表示数。
	featuredLimit = 6
	// trendingLimit はホームの人気書籍の最大表示数。
	trendingLimit = 6
)

// Filter はライブラリ一覧の絞り込み条件。
// 適用順はジャンル→ステータス→検索→ソート。
type Filter struct {
	Genre  string // 空または"all"で全ジャンル
	Status string // 空または"all"で全ステータス
	Search string // タイトル・著者・ジャンルの部分一致（大文字小文字無視）
	Sort   SortOrder
}

// Service は書籍カタログのサービス。
type Service struct {
	source tables.Source
}

// NewService はServiceを生成する。
func NewService(source tables.Source) *Service {
	return &Service{source: source}
}

// ListBooks は書籍コレクション全体を取得する。
// 各ページの描画前に毎回呼び、ローカルにキャッシュしない。
func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	var books []model.Book
	if err := s.source.List(ctx, tables.ResourceBooks, tables.Query{}, &books); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// GetBook は指定IDの書籍を取得する。
func (s *Service) GetBook(ctx context.Context, bookID string) (*model.Book, error) {
	var book model.Book
	if err := s.source.Get(ctx, tables.ResourceBooks, bookID, &book); err != nil {
		if errors.Is(err, tables.ErrNotFound) {
			return nil, model.NewBookNotFoundError(bookID)
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// Featured は注目フラグ付きの書籍を最大6件返す。
func (s *Service) Featured(books []model.Book) []model.Book {
	featured := make([]model.Book, 0, featuredLimit)
	for _, b := range books {
		if b.Featured {
			featured = append(featured, b)
			if len(featured) == featuredLimit {
				break
			}
		}
	}
	return featured
}

// Trending は読了数降順で最大6件返す。
func (s *Service) Trending(books []model.Book) []model.Book {
	trending := make([]model.Book, len(books))
	copy(trending, books)
	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].Reads > trending[j].Reads
	})
	if len(trending) > trendingLimit {
		trending = trending[:trendingLimit]
	}
	return trending
}

// GenreCount はジャンルごとの書籍数。
type GenreCount struct {
	Genre string
	Count int
}

// Genres はジャンルカード用の集計を返す。出現順を保つ。
func (s *Service) Genres(books []model.Book) []GenreCount {
	seen := make(map[string]int)
	var order []string
	for _, b := range books {
		if b.Genre == "" {
			continue
		}
		if _, ok := seen[b.Genre]; !ok {
			order = append(order, b.Genre)
		}
		seen[b.Genre]++
	}
	counts := make([]GenreCount, 0, len(order))
	for _, g := range order {
		counts = append(counts, GenreCount{Genre: g, Count: seen[g]})
	}
	return counts
}

// FilterBooks は絞り込みとソートを適用した新しいスライスを返す。
func (s *Service) FilterBooks(books []model.Book, f Filter) []model.Book {
	result := make([]model.Book, 0, len(books))
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, b := range books {
		if f.Genre != "" && f.Genre != "all" && b.Genre != f.Genre {
			continue
		}
		if f.Status != "" && f.Status != "all" && b.Status != f.Status {
			continue
		}
		if search != "" && !matchesSearch(b, search) {
			continue
		}
		result = append(result, b)
	}
	sortBooks(result, f.Sort)
	return result
}

// matchesSearch はタイトル・著者・ジャンルのいずれかに部分一致するか判定する。
func matchesSearch(b model.Book, search string) bool {
	return strings.Contains(strings.ToLower(b.Title), search) ||
		strings.Contains(strings.ToLower(b.Author), search) ||
		strings.Contains(strings.ToLower(b.Genre), search)
}

// sortBooks は指定のソート順でin-placeに並べ替える。同値の相対順は維持する。
func sortBooks(books []model.Book, order SortOrder) {
	switch order {
	case SortRecent:
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].PublishedDate.After(books[j].PublishedDate)
		})
	case SortRating:
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].Rating > books[j].Rating
		})
	case SortTitle:
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].Title < books[j].Title
		})
	default: // SortPopular
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].Reads > books[j].Reads
		})
	}
}

// Chapters は指定書籍の章一覧を章番号昇順で返す。
// バックエンドは全章を返すため、book_idでの絞り込みは取得後にも行う。
func (s *Service) Chapters(ctx context.Context, bookID string) ([]model.Chapter, error) {
	var all []model.Chapter
	q := tables.Query{Eq: map[string]string{"book_id": bookID}}
	if err := s.source.List(ctx, tables.ResourceChapters, q, &all); err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	chapters := make([]model.Chapter, 0, len(all))
	for _, c := range all {
		if c.BookID == bookID {
			chapters = append(chapters, c)
		}
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].ChapterNumber < chapters[j].ChapterNumber
	})
	return chapters, nil
}

// IncrementReads は読了数を+1してPATCHする。
// read-modify-writeのため同時更新で片方が失われることを許容する。
func (s *Service) IncrementReads(ctx context.Context, book *model.Book) error {
	patch := map[string]any{"reads": book.Reads + 1}
	if err := s.source.Update(ctx, tables.ResourceBooks, book.ID, patch); err != nil {
		return fmt.Errorf("failed to increment reads: %w", err)
	}
	book.Reads++
	return nil
}

// ToggleLike はいいねカウンタを増減してPATCHし、更新後の値を返す。
// likedは現在のセッションがこの書籍をいいね済みかどうか。
// いいね解除はカウンタを0未満にしない。
func (s *Service) ToggleLike(ctx context.Context, book *model.Book, liked bool) (int, error) {
	likes := book.Likes
	if liked {
		likes--
		if likes < 0 {
			likes = 0
		}
	} else {
		likes++
	}
	patch := map[string]any{"likes": likes}
	if err := s.source.Update(ctx, tables.ResourceBooks, book.ID, patch); err != nil {
		return book.Likes, fmt.Errorf("failed to update likes: %w", err)
	}
	book.Likes = likes
	return likes, nil
}

// BookUpload は管理者による書籍登録の入力。
type BookUpload struct {
	Title    string
	Author   string
	Genre    string
	Synopsis string
	CoverURL string
	Price    float64
	Status   string
	Tags     []string
}

// CreateBook は書籍を新規登録する。カウンタはゼロ、公開日は現在時刻で初期化する。
func (s *Service) CreateBook(ctx context.Context, upload BookUpload) (*model.Book, error) {
	if upload.Title == "" || upload.Author == "" || upload.Genre == "" {
		return nil, model.NewMissingFieldError()
	}
	status := upload.Status
	if status == "" {
		status = "ongoing"
	}
	book := model.Book{
		Title:         upload.Title,
		Author:        upload.Author,
		Genre:         upload.Genre,
		Synopsis:      upload.Synopsis,
		CoverURL:      upload.CoverURL,
		Price:         upload.Price,
		Status:        status,
		Tags:          upload.Tags,
		PublishedDate: time.Now(),
	}
	var created model.Book
	if err := s.source.Create(ctx, tables.ResourceBooks, book, &created); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	slog.Info("book created",
		slog.String("book_id", created.ID),
		slog.String("title", created.Title),
	)
	return &created, nil
}

// BookOfWeek は今週のおすすめ書籍とその紹介文を返す。
// book_of_weekテーブルの最新行を書籍に結合し、取得できない場合は
// 注目書籍からのフォールバックを使う。
func (s *Service) BookOfWeek(ctx context.Context, books []model.Book) (*model.Book, string) {
	var rows []model.BookOfWeek
	q := tables.Query{Sort: "-week_start", Limit: 1}
	if err := s.source.List(ctx, tables.ResourceBookOfWeek, q, &rows); err == nil && len(rows) > 0 {
		for i := range books {
			if books[i].ID == rows[0].BookID {
				return &books[i], rows[0].Description
			}
		}
	}
	row := fixtures.DemoBookOfWeek(books, time.Now())
	if row == nil {
		return nil, ""
	}
	for i := range books {
		if books[i].ID == row.BookID {
			return &books[i], row.Description
		}
	}
	return nil, ""
}

// SetBookOfWeek は今週のおすすめ書籍を設定する。期間は設定時刻から7日間。
func (s *Service) SetBookOfWeek(ctx context.Context, bookID, description, featuredBy string) error {
	if bookID == "" {
		return model.NewMissingFieldError()
	}
	now := time.Now()
	row := model.BookOfWeek{
		BookID:      bookID,
		WeekStart:   now,
		WeekEnd:     now.AddDate(0, 0, 7),
		FeaturedBy:  featuredBy,
		Description: description,
	}
	if err := s.source.Create(ctx, tables.ResourceBookOfWeek, row, nil); err != nil {
		return fmt.Errorf("failed to set book of the week: %w", err)
	}
	slog.Info("book of the week updated", slog.String("book_id", bookID))
	return nil
}
