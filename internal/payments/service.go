// Package payments は書籍購入（カード・モバイルマネー）と決済の承認処理を提供する。
package payments

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/miyobam/myb/internal/model"
	"github.com/miyobam/myb/internal/tables"
)

// 対応するモバイルマネープロバイダ。
const (
	ProviderMTN    = "mtn"
	ProviderAirtel = "airtel"
)

// Service は購入処理のサービス。
// 同一ユーザー・同一書籍の購入リクエストは同時に1件しか受け付けない。
type Service struct {
	source tables.Source

	mu       sync.Mutex
	inflight map[string]bool
}

// NewService はServiceを生成する。
func NewService(source tables.Source) *Service {
	return &Service{
		source:   source,
		inflight: make(map[string]bool),
	}
}

// begin は(user, book)の処理中フラグを立てる。既に処理中ならfalseを返す。
func (s *Service) begin(userID, bookID string) bool {
	key := userID + "|" + bookID
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return false
	}
	s.inflight[key] = true
	return true
}

// end は処理中フラグを下ろす。
func (s *Service) end(userID, bookID string) {
	key := userID + "|" + bookID
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// PurchaseCard はカード決済で書籍を購入する。
// 購入記録を即時作成する。決済の実処理は行わない（デモモード）。
func (s *Service) PurchaseCard(ctx context.Context, user model.User, book model.Book) (*model.Purchase, error) {
	if !s.begin(user.ID, book.ID) {
		return nil, model.NewPurchaseInFlightError()
	}
	defer s.end(user.ID, book.ID)

	purchase := model.Purchase{
		UserID:        user.ID,
		BookID:        book.ID,
		Amount:        book.Price,
		PaymentMethod: "card",
		PurchaseDate:  time.Now(),
	}
	var created model.Purchase
	if err := s.source.Create(ctx, tables.ResourcePurchases, purchase, &created); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}
	slog.Info("card purchase recorded",
		slog.String("user_id", user.ID),
		slog.String("book_id", book.ID),
		slog.Float64("amount", book.Price),
	)
	return &created, nil
}

// PurchaseMobile はモバイルマネー決済を開始する。
// pending状態の決済レコードを作成し、承認は決済ワーカーが行う。
func (s *Service) PurchaseMobile(ctx context.Context, user model.User, book model.Book, provider, phoneNumber string) (*model.MobilePayment, error) {
	if provider != ProviderMTN && provider != ProviderAirtel {
		return nil, model.NewMissingFieldError()
	}
	if phoneNumber == "" {
		return nil, model.NewMissingFieldError()
	}
	if !s.begin(user.ID, book.ID) {
		return nil, model.NewPurchaseInFlightError()
	}
	defer s.end(user.ID, book.ID)

	payment := model.MobilePayment{
		UserID:        user.ID,
		BookID:        book.ID,
		Amount:        book.Price,
		Provider:      provider,
		PhoneNumber:   phoneNumber,
		TransactionID: fmt.Sprintf("TXN-%d", time.Now().UnixMilli()),
		Status:        model.MobilePaymentPending,
		CreatedAt:     time.Now(),
	}
	var created model.MobilePayment
	if err := s.source.Create(ctx, tables.ResourcePayments, payment, &created); err != nil {
		return nil, fmt.Errorf("failed to create mobile payment: %w", err)
	}
	slog.Info("mobile payment initiated",
		slog.String("user_id", user.ID),
		slog.String("book_id", book.ID),
		slog.String("provider", provider),
		slog.String("transaction_id", created.TransactionID),
	)
	return &created, nil
}

// SettlePending は作成からdelay以上経過したpending決済を承認し、
// 購入記録を作成する。承認した件数を返す。
func (s *Service) SettlePending(ctx context.Context, delay time.Duration) (int, error) {
	var payments []model.MobilePayment
	q := tables.Query{Eq: map[string]string{"status": string(model.MobilePaymentPending)}}
	if err := s.source.List(ctx, tables.ResourcePayments, q, &payments); err != nil {
		return 0, fmt.Errorf("failed to list pending payments: %w", err)
	}

	// 古い順に処理する
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})

	cutoff := time.Now().Add(-delay)
	settled := 0
	for _, p := range payments {
		if p.Status != model.MobilePaymentPending || p.CreatedAt.After(cutoff) {
			continue
		}
		if err := s.settle(ctx, p); err != nil {
			slog.Error("failed to settle payment",
				slog.String("payment_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		settled++
	}
	return settled, nil
}

// settle は1件の決済を承認し購入記録を作成する。
func (s *Service) settle(ctx context.Context, payment model.MobilePayment) error {
	patch := map[string]any{"status": string(model.MobilePaymentApproved)}
	if err := s.source.Update(ctx, tables.ResourcePayments, payment.ID, patch); err != nil {
		return fmt.Errorf("failed to approve payment: %w", err)
	}

	purchase := model.Purchase{
		UserID:        payment.UserID,
		BookID:        payment.BookID,
		Amount:        payment.Amount,
		PaymentMethod: payment.Provider,
		PurchaseDate:  time.Now(),
	}
	if err := s.source.Create(ctx, tables.ResourcePurchases, purchase, nil); err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}

	slog.Info("mobile payment settled",
		slog.String("payment_id", payment.ID),
		slog.String("transaction_id", payment.TransactionID),
		slog.String("user_id", payment.UserID),
		slog.String("book_id", payment.BookID),
	)
	return nil
}
