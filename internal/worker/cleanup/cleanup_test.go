package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// Executor インターフェースに対するモック実装。クエリごとに呼び出しを記録する。
type mockExecutor struct {
	queries [][]interface{} // [query, args...]
	result  sql.Result
	err     error
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	call := append([]interface{}{query}, args...)
	m.queries = append(m.queries, call)
	return m.result, m.err
}

func (m *mockExecutor) query(i int) string {
	if i >= len(m.queries) {
		return ""
	}
	q, _ := m.queries[i][0].(string)
	return q
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestNewCleanupJob_SetsRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	if job.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", job.RetentionDays)
	}
}

func TestCleanupJob_Run_DeletesExpiredSessions(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 5}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	if len(mock.queries) != 2 {
		t.Fatalf("ExecContext の呼び出し回数が違う: got %d, want 2", len(mock.queries))
	}
	if !strings.Contains(mock.query(0), "DELETE FROM sessions") {
		t.Errorf("1本目のクエリに 'DELETE FROM sessions' が含まれていない: %s", mock.query(0))
	}
	if !strings.Contains(mock.query(0), "expires_at") {
		t.Errorf("1本目のクエリに 'expires_at' 条件が含まれていない: %s", mock.query(0))
	}
}

func TestCleanupJob_Run_DeletesStalePreferences(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	_ = job.Run(context.Background())

	if !strings.Contains(mock.query(1), "DELETE FROM preferences") {
		t.Errorf("2本目のクエリに 'DELETE FROM preferences' が含まれていない: %s", mock.query(1))
	}
	if !strings.Contains(mock.query(1), "updated_at") {
		t.Errorf("2本目のクエリに 'updated_at' 条件が含まれていない: %s", mock.query(1))
	}

	// 引数に30日のinterval文字列が渡されること
	if len(mock.queries[1]) < 2 {
		t.Fatal("表示設定の削除クエリに引数が渡されなかった")
	}
	argStr, ok := mock.queries[1][1].(string)
	if !ok {
		t.Fatalf("第1引数が string ではない: %T", mock.queries[1][1])
	}
	if argStr != "30 days" {
		t.Errorf("interval引数 = %q, want %q", argStr, "30 days")
	}
}

func TestCleanupJob_CustomRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{}}
	job := NewCleanupJob(mock, newTestLogger(&buf))
	job.RetentionDays = 90

	_ = job.Run(context.Background())

	argStr, _ := mock.queries[1][1].(string)
	if argStr != "90 days" {
		t.Errorf("interval引数 = %q, want %q", argStr, "90 days")
	}
}

func TestCleanupJob_Run_LogsDeletedCounts(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 42}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	_ = job.Run(context.Background())

	var entry map[string]interface{}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	found := false
	for _, line := range lines {
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry["deleted_sessions"] == float64(42) && entry["deleted_preferences"] == float64(42) {
			if _, ok := entry["duration_ms"]; ok {
				found = true
				break
			}
		}
	}
	if !found {
		t.Errorf("ログに削除件数とduration_msが記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_ReturnsErrorOnDBFailure(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{err: sql.ErrConnDone}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("DBエラー時に Run() は nil でないエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "sql: connection is already closed") {
		t.Errorf("エラーメッセージが期待と異なる: %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("エラー時にERRORレベルのログが記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_Idempotent_ZeroRows(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 0}}
	job := NewCleanupJob(mock, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("1回目の Run() がエラーを返した: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("2回目の Run() がエラーを返した: %v", err)
	}
}
