// Package settle はモバイルマネー決済のバックグラウンド承認処理を提供する。
// 保留中の決済を一定の遅延の後に承認し、購入記録を作成する。
package settle

import (
	"context"
	"log/slog"
	"time"
)

// Settler は保留中決済の承認を実行するインターフェース。
type Settler interface {
	// SettlePending はdelayより古い保留中決済を承認し、承認件数を返す。
	SettlePending(ctx context.Context, delay time.Duration) (int, error)
}

// SettlementRecorder は承認件数をメトリクスに記録するインターフェース。
type SettlementRecorder interface {
	RecordSettlement(count int)
}

// Scheduler は決済承認のスケジューリングを行う。
// 短い間隔のティッカーで保留中決済を確認し、作成から一定時間が
// 経過したものを承認する。
type Scheduler struct {
	settler  Settler
	recorder SettlementRecorder
	logger   *slog.Logger
	delay    time.Duration
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// delayが0以下の場合はデフォルト値3秒を使用する。
// recorderはnilでもよい。
func NewScheduler(settler Settler, recorder SettlementRecorder, logger *slog.Logger, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Scheduler{
		settler:  settler,
		recorder: recorder,
		logger:   logger,
		delay:    delay,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("決済承認スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("delay", s.delay),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("決済承認サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("決済承認スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("決済承認サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は保留中決済の承認を1回実行する。
// 冪等: 承認対象がない場合でもエラーにならない。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	settled, err := s.settler.SettlePending(ctx, s.delay)
	if err != nil {
		return err
	}

	if settled == 0 {
		return nil
	}

	if s.recorder != nil {
		s.recorder.RecordSettlement(settled)
	}

	duration := time.Since(start)
	s.logger.Info("決済承認サイクルが完了しました",
		slog.Int("settled_count", settled),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
