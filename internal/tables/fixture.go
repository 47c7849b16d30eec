package tables

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miyobam/myb/internal/fixtures"
)

// FixtureSource はバックエンドなしで動作するインメモリのSource実装。
// デモカタログをシードとして起動し、書き込みはプロセスメモリにのみ残る。
// デモ環境とテストで使用する。
type FixtureSource struct {
	mu   sync.Mutex
	data map[string][]map[string]any
}

var _ Source = (*FixtureSource)(nil)

// NewFixtureSource はデモ書籍をシードしたFixtureSourceを生成する。
func NewFixtureSource() (*FixtureSource, error) {
	var books []map[string]any
	if err := decodeInto(fixtures.DemoBooks(), &books); err != nil {
		return nil, fmt.Errorf("デモカタログのシードに失敗しました: %w", err)
	}
	return &FixtureSource{
		data: map[string][]map[string]any{
			ResourceBooks: books,
		},
	}, nil
}

// List はコレクションの一覧を返す。Eqフィルタ、ソート、limitを適用する。
func (s *FixtureSource) List(ctx context.Context, resource string, q Query, out any) error {
	s.mu.Lock()
	records := make([]map[string]any, 0, len(s.data[resource]))
	for _, rec := range s.data[resource] {
		if matchesEq(rec, q.Eq) {
			records = append(records, rec)
		}
	}
	s.mu.Unlock()

	if q.Sort != "" {
		field := q.Sort
		if q.Order == "desc" && !strings.HasPrefix(field, "-") {
			field = "-" + field
		}
		sortRecords(records, field)
	}
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return decodeInto(records, out)
}

// Get は指定IDのレコードを返す。存在しない場合はErrNotFound。
func (s *FixtureSource) Get(ctx context.Context, resource, id string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(resource, id)
	if rec == nil {
		return ErrNotFound
	}
	return decodeInto(rec, out)
}

// Create はレコードをメモリに追加する。idとcreated_atが未設定なら補完する。
func (s *FixtureSource) Create(ctx context.Context, resource string, body, out any) error {
	var rec map[string]any
	if err := decodeInto(body, &rec); err != nil {
		return err
	}
	if rec == nil {
		rec = make(map[string]any)
	}
	if id, _ := rec["id"].(string); id == "" {
		rec["id"] = uuid.New().String()
	}
	if _, ok := rec["created_at"]; !ok {
		rec["created_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	s.mu.Lock()
	s.data[resource] = append(s.data[resource], rec)
	s.mu.Unlock()

	return decodeInto(rec, out)
}

// Update はレコードへ部分更新をマージする。
func (s *FixtureSource) Update(ctx context.Context, resource, id string, patch any) error {
	var fields map[string]any
	if err := decodeInto(patch, &fields); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(resource, id)
	if rec == nil {
		return ErrNotFound
	}
	for key, value := range fields {
		rec[key] = value
	}
	return nil
}

// Replace はレコードを全体置換する。idは維持する。
func (s *FixtureSource) Replace(ctx context.Context, resource, id string, body any) error {
	var rec map[string]any
	if err := decodeInto(body, &rec); err != nil {
		return err
	}
	if rec == nil {
		rec = make(map[string]any)
	}
	rec["id"] = id

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.data[resource] {
		if recID, _ := existing["id"].(string); recID == id {
			s.data[resource][i] = rec
			return nil
		}
	}
	return ErrNotFound
}

// Remove はレコードを削除する。
func (s *FixtureSource) Remove(ctx context.Context, resource, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.data[resource] {
		if recID, _ := existing["id"].(string); recID == id {
			s.data[resource] = append(s.data[resource][:i], s.data[resource][i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Act はアクションのボディをレコードへマージする。
// 審査アクション（review）のstatus反映など、バックエンドのサーバー側処理の簡易版。
func (s *FixtureSource) Act(ctx context.Context, resource, id, action string, body any) error {
	return s.Update(ctx, resource, id, body)
}

// find は呼び出し側がロックを保持している前提でレコードを探す。
func (s *FixtureSource) find(resource, id string) map[string]any {
	for _, rec := range s.data[resource] {
		if recID, _ := rec["id"].(string); recID == id {
			return rec
		}
	}
	return nil
}

// matchesEq はレコードが等値フィルタをすべて満たすかを判定する。
func matchesEq(rec map[string]any, eq map[string]string) bool {
	for key, want := range eq {
		if fmt.Sprint(rec[key]) != want {
			return false
		}
	}
	return true
}

// sortRecords はフィールド値の文字列比較でレコードをソートする。
// 先頭の'-'は降順を表す。同値の相対順は維持する。
func sortRecords(records []map[string]any, field string) {
	desc := strings.HasPrefix(field, "-")
	key := strings.TrimPrefix(field, "-")
	sort.SliceStable(records, func(i, j int) bool {
		a, b := fmt.Sprint(records[i][key]), fmt.Sprint(records[j][key])
		if desc {
			return a > b
		}
		return a < b
	})
}
