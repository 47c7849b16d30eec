// Package contest は作品コンテストの開催・投票・集計を提供する。
package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/tables"
)

// Service はコンテストのサービス。
type Service struct {
	source tables.Source
}

// NewService はServiceを生成する。
func NewService(source tables.Source) *Service {
	return &Service{source: source}
}

// ListContests はコンテスト全件を取得する。
func (s *Service) ListContests(ctx context.Context) ([]model.Contest, error) {
	var contests []model.Contest
	if err := s.source.List(ctx, tables.ResourceContests, tables.Query{}, &contests); err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	return contests, nil
}

// ActiveContests は開催中のコンテストだけを返す。
func (s *Service) ActiveContests(contests []model.Contest) []model.Contest {
	active := make([]model.Contest, 0, len(contests))
	for _, c := range contests {
		if c.Status == model.ContestActive {
			active = append(active, c)
		}
	}
	return active
}

// GetContest は指定IDのコンテストを取得する。
func (s *Service) GetContest(ctx context.Context, contestID string) (*model.Contest, error) {
	var contest model.Contest
	if err := s.source.Get(ctx, tables.ResourceContests, contestID, &contest); err != nil {
		if errors.Is(err, tables.ErrNotFound) {
			return nil, model.NewContestNotFoundError(contestID)
		}
		return nil, fmt.Errorf("failed to get contest: %w", err)
	}
	return &contest, nil
}

// Vote は投票を登録する。ユーザーあたり1エントリで、再投票は上書きする。
// 投票できるのは開催中のコンテストのエントリ作品のみ。
func (s *Service) Vote(ctx context.Context, contest *model.Contest, userID, storyID string) error {
	if contest.Status != model.ContestActive {
		return model.NewContestEndedError()
	}
	entry := false
	for _, id := range contest.Stories {
		if id == storyID {
			entry = true
			break
		}
	}
	if !entry {
		return model.NewStoryNotFoundError(storyID)
	}

	votes := make(map[string]string, len(contest.Votes)+1)
	for k, v := range contest.Votes {
		votes[k] = v
	}
	votes[userID] = storyID

	patch := map[string]any{"votes": votes}
	if err := s.source.Update(ctx, tables.ResourceContests, contest.ID, patch); err != nil {
		return fmt.Errorf("failed to save vote: %w", err)
	}
	contest.Votes = votes
	slog.Info("contest vote recorded",
		slog.String("contest_id", contest.ID),
		slog.String("user_id", userID),
		slog.String("story_id", storyID),
	)
	return nil
}

// CreateContest はコンテストを新規開催する。votes空・status=activeで初期化する。
func (s *Service) CreateContest(ctx context.Context, title, description string, storyIDs []string, start, end time.Time) (*model.Contest, error) {
	if title == "" || len(storyIDs) == 0 {
		return nil, model.NewMissingFieldError()
	}
	contest := model.Contest{
		Title:       title,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		Stories:     storyIDs,
		Votes:       map[string]string{},
		Status:      model.ContestActive,
	}
	var created model.Contest
	if err := s.source.Create(ctx, tables.ResourceContests, contest, &created); err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	slog.Info("contest created",
		slog.String("contest_id", created.ID),
		slog.String("title", created.Title),
	)
	return &created, nil
}

// EndContest はコンテストを終了する。以後の投票は受け付けない。
func (s *Service) EndContest(ctx context.Context, contestID string) error {
	patch := map[string]any{"status": string(model.ContestEnded)}
	if err := s.source.Update(ctx, tables.ResourceContests, contestID, patch); err != nil {
		return fmt.Errorf("failed to end contest: %w", err)
	}
	slog.Info("contest ended", slog.String("contest_id", contestID))
	return nil
}
