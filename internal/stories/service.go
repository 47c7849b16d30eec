// Package stories はPDFストーリーのアップロード・審査・通報・評価を提供する。
package stories

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/security"
	"github.com/miyobam/myb/internal/tables"
)

// Uploader はファイルアップロードエンドポイントの呼び出しを抽象化する。
// tables.UploadClientが実装する。
type Uploader interface {
	Upload(ctx context.Context, filename, base64Data string) (string, error)
}

// ServiceConfig はストーリーサービスの設定。
type ServiceConfig struct {
	UploadMaxSize int64 // PDFの最大バイト数
}

// Service はPDFストーリーのサービス。
type Service struct {
	source   tables.Source
	uploader Uploader
	guard    security.SSRFGuardService
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(source tables.Source, uploader Uploader, guard security.SSRFGuardService, config ServiceConfig) *Service {
	return &Service{
		source:   source,
		uploader: uploader,
		guard:    guard,
		config:   config,
	}
}

// ListStories はストーリーコレクション全体を取得する。
func (s *Service) ListStories(ctx context.Context) ([]model.PDFStory, error) {
	var stories []model.PDFStory
	if err := s.source.List(ctx, tables.ResourcePDFStories, tables.Query{}, &stories); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// ApprovedStories は承認済みストーリーだけを返す。公開一覧はこれを使う。
func (s *Service) ApprovedStories(stories []model.PDFStory) []model.PDFStory {
	approved := make([]model.PDFStory, 0, len(stories))
	for _, st := range stories {
		if st.Status == model.StoryApproved {
			approved = append(approved, st)
		}
	}
	return approved
}

// PendingStories は審査待ちストーリーだけを返す。
func (s *Service) PendingStories(stories []model.PDFStory) []model.PDFStory {
	pending := make([]model.PDFStory, 0, len(stories))
	for _, st := range stories {
		if st.Status == model.StoryPending {
			pending = append(pending, st)
		}
	}
	return pending
}

// StatusCounts は審査状態ごとの件数を返す。
func (s *Service) StatusCounts(stories []model.PDFStory) map[model.StoryStatus]int {
	counts := make(map[model.StoryStatus]int, 3)
	for _, st := range stories {
		counts[st.Status]++
	}
	return counts
}

// GetStory は指定IDのストーリーを取得する。
func (s *Service) GetStory(ctx context.Context, storyID string) (*model.PDFStory, error) {
	var story model.PDFStory
	if err := s.source.Get(ctx, tables.ResourcePDFStories, storyID, &story); err != nil {
		if errors.Is(err, tables.ErrNotFound) {
			return nil, model.NewStoryNotFoundError(storyID)
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &story, nil
}

// Upload はPDFストーリーのアップロード入力。
type Upload struct {
	Title        string
	Author       string
	UploaderName string
	Genre        string
	Description  string
	Tags         []string
	Filename     string
	ContentType  string
	Data         []byte
}

// SubmitStory はPDFを検証してアップロードし、審査待ちのストーリーを作成する。
// 検証順: 必須項目 → ファイル形式 → サイズ。すべてエンコード前に行う。
func (s *Service) SubmitStory(ctx context.Context, upload Upload) (*model.PDFStory, error) {
	if upload.Title == "" || upload.Author == "" || upload.Genre == "" || len(upload.Data) == 0 {
		return nil, model.NewMissingFieldError()
	}
	if upload.ContentType != "application/pdf" {
		return nil, model.NewInvalidFileTypeError()
	}
	if int64(len(upload.Data)) > s.config.UploadMaxSize {
		return nil, model.NewFileTooLargeError(s.config.UploadMaxSize)
	}

	encoded := base64.StdEncoding.EncodeToString(upload.Data)
	url, err := s.uploader.Upload(ctx, upload.Filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to upload PDF: %w", err)
	}
	if err := s.guard.ValidateURL(url); err != nil {
		return nil, model.NewSSRFBlockedError()
	}

	story := model.PDFStory{
		Title:        upload.Title,
		Author:       upload.Author,
		UploaderName: upload.UploaderName,
		Genre:        upload.Genre,
		Description:  upload.Description,
		Tags:         upload.Tags,
		PDFURL:       url,
		Status:       model.StoryPending,
	}
	var created model.PDFStory
	if err := s.source.Create(ctx, tables.ResourcePDFStories, story, &created); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	slog.Info("story submitted for review",
		slog.String("story_id", created.ID),
		slog.String("title", created.Title),
	)
	return &created, nil
}

// ApproveStory はストーリーを承認する。
// 更新後はコレクション全体を再取得して返す。
func (s *Service) ApproveStory(ctx context.Context, storyID string) ([]model.PDFStory, error) {
	body := map[string]any{"status": string(model.StoryApproved), "review_reason": ""}
	if err := s.source.Act(ctx, tables.ResourcePDFStories, storyID, "review", body); err != nil {
		return nil, fmt.Errorf("failed to approve story: %w", err)
	}
	slog.Info("story approved", slog.String("story_id", storyID))
	return s.ListStories(ctx)
}

// RejectStory はストーリーを却下する。理由は必須で、未入力の場合は送信しない。
func (s *Service) RejectStory(ctx context.Context, storyID, reason string) ([]model.PDFStory, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, model.NewReasonRequiredError()
	}
	body := map[string]any{"status": string(model.StoryRejected), "review_reason": reason}
	if err := s.source.Act(ctx, tables.ResourcePDFStories, storyID, "review", body); err != nil {
		return nil, fmt.Errorf("failed to reject story: %w", err)
	}
	slog.Info("story rejected",
		slog.String("story_id", storyID),
		slog.String("reason", reason),
	)
	return s.ListStories(ctx)
}

// DeleteStory はストーリーを削除する。
func (s *Service) DeleteStory(ctx context.Context, storyID string) ([]model.PDFStory, error) {
	if err := s.source.Remove(ctx, tables.ResourcePDFStories, storyID); err != nil {
		return nil, fmt.Errorf("failed to delete story: %w", err)
	}
	slog.Info("story deleted", slog.String("story_id", storyID))
	return s.ListStories(ctx)
}

// IncrementViews は閲覧数を+1してPATCHする。競合による欠落を許容する。
func (s *Service) IncrementViews(ctx context.Context, story *model.PDFStory) error {
	patch := map[string]any{"views": story.Views + 1}
	if err := s.source.Update(ctx, tables.ResourcePDFStories, story.ID, patch); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	story.Views++
	return nil
}

// ReportStory はストーリーへの通報を作成する。pending状態で登録される。
func (s *Service) ReportStory(ctx context.Context, storyID, reporterName, reason, reportType string) (*model.StoryReport, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, model.NewReasonRequiredError()
	}
	report := model.StoryReport{
		StoryID:      storyID,
		ReporterName: reporterName,
		Reason:       reason,
		Type:         reportType,
		Status:       model.ReportPending,
	}
	var created model.StoryReport
	if err := s.source.Create(ctx, tables.ResourceStoryReports, report, &created); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	slog.Info("story reported",
		slog.String("story_id", storyID),
		slog.String("report_id", created.ID),
	)
	return &created, nil
}

// ListReports は通報一覧を新しい順で返す。
func (s *Service) ListReports(ctx context.Context) ([]model.StoryReport, error) {
	var reports []model.StoryReport
	q := tables.Query{Sort: "-created_at"}
	if err := s.source.List(ctx, tables.ResourceStoryReports, q, &reports); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// ResolveReport は通報を処理済み（resolved/dismissed）にする。
// 更新後は通報一覧を再取得して返す。
func (s *Service) ResolveReport(ctx context.Context, report model.StoryReport, status model.ReportStatus) ([]model.StoryReport, error) {
	if status != model.ReportResolved && status != model.ReportDismissed {
		return nil, model.NewMissingFieldError()
	}
	report.Status = status
	if err := s.source.Replace(ctx, tables.ResourceStoryReports, report.ID, report); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	slog.Info("report resolved",
		slog.String("report_id", report.ID),
		slog.String("status", string(status)),
	)
	return s.ListReports(ctx)
}

// RateStory は1〜5の星評価を登録する。
func (s *Service) RateStory(ctx context.Context, storyID, userID string, rating int) error {
	if rating < 1 || rating > 5 {
		return model.NewInvalidRatingError()
	}
	record := model.Rating{
		StoryID: storyID,
		UserID:  userID,
		Rating:  rating,
	}
	if err := s.source.Create(ctx, tables.ResourceRatings, record, nil); err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// RatingSummaries はストーリーごとの評価集計を返す。
func (s *Service) RatingSummaries(ctx context.Context) (map[string]model.RatingSummary, error) {
	var ratings []model.Rating
	if err := s.source.List(ctx, tables.ResourceRatings, tables.Query{}, &ratings); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, r := range ratings {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		sums[r.StoryID] += r.Rating
		counts[r.StoryID]++
	}
	summaries := make(map[string]model.RatingSummary, len(counts))
	for storyID, count := range counts {
		summaries[storyID] = model.RatingSummary{
			Average: float64(sums[storyID]) / float64(count),
			Count:   count,
		}
	}
	return summaries, nil
}

// TopStories は閲覧数降順で最大limit件返す。
func TopStories(stories []model.PDFStory, limit int) []model.PDFStory {
	top := make([]model.PDFStory, len(stories))
	copy(top, stories)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Views > top[j].Views
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}
