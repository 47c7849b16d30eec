// Package library は読書進捗と購入履歴の管理を提供する。
package library

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/tables"
)

// Service は読書進捗・購入履歴のサービス。
type Service struct {
	source tables.Source
}

// NewService はServiceを生成する。
func NewService(source tables.Source) *Service {
	return &Service{source: source}
}

// LoadProgress は指定ユーザーの読書進捗を全件取得する。
// バックエンドのフィルタは保証されないため、user_idでの絞り込みは取得後にも行う。
func (s *Service) LoadProgress(ctx context.Context, userID string) ([]model.ReadingProgress, error) {
	var all []model.ReadingProgress
	q := tables.Query{Eq: map[string]string{"user_id": userID}}
	if err := s.source.List(ctx, tables.ResourceReadingProgress, q, &all); err != nil {
		return nil, fmt.Errorf("failed to list reading progress: %w", err)
	}
	progress := make([]model.ReadingProgress, 0, len(all))
	for _, p := range all {
		if p.UserID == userID {
			progress = append(progress, p)
		}
	}
	return progress, nil
}

// SaveProgress は読書位置を保存する。
// ローカルに既知のレコードIDがあればPATCH、なければPOSTで新規作成するupsert。
// 戻り値は以後セッションへキャッシュするレコードID。
func (s *Service) SaveProgress(ctx context.Context, userID, bookID string, chapter int, knownID string) (string, error) {
	now := time.Now()
	if knownID != "" {
		patch := map[string]any{
			"current_chapter": chapter,
			"last_read":       now.Format(time.RFC3339),
		}
		if err := s.source.Update(ctx, tables.ResourceReadingProgress, knownID, patch); err != nil {
			return "", fmt.Errorf("failed to update reading progress: %w", err)
		}
		return knownID, nil
	}

	record := model.ReadingProgress{
		UserID:         userID,
		BookID:         bookID,
		CurrentChapter: chapter,
		LastRead:       now,
	}
	var created model.ReadingProgress
	if err := s.source.Create(ctx, tables.ResourceReadingProgress, record, &created); err != nil {
		return "", fmt.Errorf("failed to create reading progress: %w", err)
	}
	return created.ID, nil
}

// LoadPurchases は指定ユーザーの購入履歴を購入日降順で返す。
func (s *Service) LoadPurchases(ctx context.Context, userID string) ([]model.Purchase, error) {
	var all []model.Purchase
	q := tables.Query{Eq: map[string]string{"user_id": userID}}
	if err := s.source.List(ctx, tables.ResourcePurchases, q, &all); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	purchases := make([]model.Purchase, 0, len(all))
	for _, p := range all {
		if p.UserID == userID {
			purchases = append(purchases, p)
		}
	}
	sort.SliceStable(purchases, func(i, j int) bool {
		return purchases[i].PurchaseDate.After(purchases[j].PurchaseDate)
	})
	return purchases, nil
}

// PurchasedBookIDs は購入済み書籍のIDリストを返す。重複は除去する。
func PurchasedBookIDs(purchases []model.Purchase) []string {
	seen := make(map[string]bool, len(purchases))
	ids := make([]string, 0, len(purchases))
	for _, p := range purchases {
		if !seen[p.BookID] {
			seen[p.BookID] = true
			ids = append(ids, p.BookID)
		}
	}
	return ids
}

// BooksByIDs はIDリストの順序を保って書籍を引き当てる。見つからないIDは飛ばす。
func BooksByIDs(books []model.Book, ids []string) []model.Book {
	byID := make(map[string]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	result := make([]model.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			result = append(result, b)
		}
	}
	return result
}

// ReadingEntry は「読書中」タブの1件（進捗と書籍の結合）。
type ReadingEntry struct {
	Book     model.Book
	Progress model.ReadingProgress
}

// ReadingEntries は進捗を書籍に結合し、最終閲覧降順で返す。
// 書籍が見つからない進捗は表示しない。
func ReadingEntries(books []model.Book, progress []model.ReadingProgress) []ReadingEntry {
	byID := make(map[string]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	entries := make([]ReadingEntry, 0, len(progress))
	for _, p := range progress {
		if b, ok := byID[p.BookID]; ok {
			entries = append(entries, ReadingEntry{Book: b, Progress: p})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Progress.LastRead.After(entries[j].Progress.LastRead)
	})
	return entries
}
