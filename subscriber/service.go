package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Outcome 描述一次登记的结果。
type Outcome int

const (
	// Skipped 表示未提供邮箱。
	Skipped Outcome = iota
	// Saved 表示新登记了邮箱。
	Saved
	// Existing 表示邮箱已存在，计数加一。
	Existing
	// Invalid 表示邮箱格式不合法，未保存。
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case Existing:
		return "existing"
	case Invalid:
		return "invalid"
	default:
		return "skipped"
	}
}

// Service 在生成 PDF 时登记邮箱。查找与写入在同一把锁内完成，
// 同一邮箱的并发提交不会产生重复记录。
type Service struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// NewService 创建 Service，logger 为 nil 时使用 slog.Default()。
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

// Record 登记一次生成：新邮箱创建记录，已有邮箱计数加一。
func (s *Service) Record(ctx context.Context, raw string) (Outcome, error) {
	email := Normalize(raw)
	if email == "" {
		return Skipped, nil
	}
	if !ValidEmail(email) {
		s.logger.Info("email rejected", slog.String("email", email))
		return Invalid, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		sub, err = s.store.Create(ctx, email, s.now().UTC())
		if err != nil {
			return Skipped, err
		}
		s.logger.Info("subscriber saved", slog.Int64("id", sub.ID), slog.String("email", email))
		return Saved, nil
	case err != nil:
		return Skipped, err
	}

	if err := s.store.IncrementCount(ctx, sub.ID); err != nil {
		return Skipped, fmt.Errorf("订阅者 %s: %w", email, err)
	}
	s.logger.Info("subscriber counted", slog.Int64("id", sub.ID), slog.Int("pdfCount", sub.PDFCount+1))
	return Existing, nil
}

// List 返回全部订阅者，供管理页展示。
func (s *Service) List(ctx context.Context) ([]Subscriber, error) {
	return s.store.List(ctx)
}
