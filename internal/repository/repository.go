package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ricoauto/gatepass/internal/domain"
)

// Duplicate-key sentinels surfaced from unique-constraint violations so the
// ID generator can advance its sequence and retry the insert.
var (
	ErrDuplicatePassID      = errors.New("pass id already exists")
	ErrDuplicateVipAccessID = errors.New("vip access id already exists")
)

type VisitorRepository interface {
	Create(ctx context.Context, v *domain.VisitorPass) (*domain.VisitorPass, error)
	CountByPassIDPrefix(ctx context.Context, prefix string) (int, error)
	PassIDExists(ctx context.Context, passID string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	FindByPassID(ctx context.Context, passID, phone string) (*domain.VisitorPass, error)
	FindLatestByNameAndPhone(ctx context.Context, name, phone string) (*domain.VisitorPass, error)
	FindLatestByPhone(ctx context.Context, phone string) (*domain.VisitorPass, error)
	FindLatestByName(ctx context.Context, name string) (*domain.VisitorPass, error)
	SuggestNames(ctx context.Context, prefix string, limit int) ([]string, error)
	SetCompleted(ctx context.Context, id int64, at time.Time) error
	DeleteByPassID(ctx context.Context, passID string) (bool, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]domain.VisitorPass, error)
	ListActive(ctx context.Context) ([]domain.VisitorPass, error)
	ListHistory(ctx context.Context, start, end *time.Time) ([]domain.VisitorPass, error)
	FindLatestVip(ctx context.Context, passID, vipAccessID string, activeOnly bool) (*domain.VisitorPass, error)
	ListVipLogs(ctx context.Context, limit int) ([]domain.VisitorPass, error)
}

type VipPassRepository interface {
	Create(ctx context.Context, code *domain.VipAccessCode) (*domain.VipAccessCode, error)
	CountByPrefix(ctx context.Context, prefix string) (int, error)
	Exists(ctx context.Context, vipAccessID string) (bool, error)
	FindActiveByID(ctx context.Context, vipAccessID string) (*domain.VipAccessCode, error)
	RecordIssue(ctx context.Context, vipAccessID, passID string, at time.Time) error
}
