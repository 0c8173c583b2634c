package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ricoauto/gatepass/internal/domain"
)

func mustCreate(t *testing.T, repo *MemoryVisitorRepository, v *domain.VisitorPass) *domain.VisitorPass {
	t.Helper()
	created, err := repo.Create(context.Background(), v)
	if err != nil {
		t.Fatalf("Create failed for %s: %v", v.PassID, err)
	}
	return created
}

func pass(passID, name, phone string, timeIn time.Time) *domain.VisitorPass {
	return &domain.VisitorPass{
		PassID:       passID,
		Name:         name,
		Phone:        phone,
		VisitType:    "Meeting",
		PersonToMeet: "Reception",
		Status:       domain.PassActive,
		Date:         timeIn,
		TimeIn:       timeIn,
	}
}

func TestCreateRejectsDuplicatePassID(t *testing.T) {
	repo := NewMemoryVisitorRepository()
	mustCreate(t, repo, pass("PASS-20250309-0001", "Asha Rao", "9000000111", time.Now()))

	_, err := repo.Create(context.Background(), pass("PASS-20250309-0001", "Other", "9000000222", time.Now()))
	if !errors.Is(err, ErrDuplicatePassID) {
		t.Fatalf("expected ErrDuplicatePassID, got %v", err)
	}
}

func TestCountByPassIDPrefix(t *testing.T) {
	repo := NewMemoryVisitorRepository()
	mustCreate(t, repo, pass("PASS-20250309-0001", "A", "9000000001", time.Now()))
	mustCreate(t, repo, pass("PASS-20250309-0002", "B", "9000000002", time.Now()))
	mustCreate(t, repo, pass("VIP-20250309-0001", "C", "9000000003", time.Now()))

	count, err := repo.CountByPassIDPrefix(context.Background(), "PASS-20250309-")
	if err != nil {
		t.Fatalf("CountByPassIDPrefix failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}
}

func TestFindByPassIDPhoneNarrowing(t *testing.T) {
	repo := NewMemoryVisitorRepository()
	mustCreate(t, repo, pass("PASS-20250309-0001", "Asha Rao", "9000000111", time.Now()))

	v, err := repo.FindByPassID(context.Background(), "PASS-20250309-0001", "")
	if err != nil || v == nil {
		t.Fatalf("expected match without phone, got %v %v", v, err)
	}

	v, err = repo.FindByPassID(context.Background(), "PASS-20250309-0001", "9000000999")
	if err != nil {
		t.Fatalf("FindByPassID failed: %v", err)
	}
	if v != nil {
		t.Errorf("mismatched phone must not match, got %+v", v)
	}
}

func TestSuggestNamesPrefixCaseInsensitive(t *testing.T) {
	repo := NewMemoryVisitorRepository()
	mustCreate(t, repo, pass("PASS-20250309-0001", "Asha Rao", "9000000001", time.Now()))
	mustCreate(t, repo, pass("PASS-20250309-0002", "ashok kumar", "9000000002", time.Now()))
	mustCreate(t, repo, pass("PASS-20250309-0003", "Binod Singh", "9000000003", time.Now()))

	names, err := repo.SuggestNames(context.Background(), "ASH", 10)
	if err != nil {
		t.Fatalf("SuggestNames failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 matches, got %v", names)
	}
}

func TestListActiveToleratesLegacyStatus(t *testing.T) {
	repo := NewMemoryVisitorRepository()
	mustCreate(t, repo, pass("PASS-20250309-0001", "A", "9000000001", time.Now()))

	// Unknown status with no exit time still counts as inside.
	legacy := pass("PASS-20250309-0002", "B", "9000000002", time.Now())
	legacy.Status = "ACTIVE "
	mustCreate(t, repo, legacy)

	done := pass("PASS-20250309-0003", "C", "9000000003", time.Now())
	created := mustCreate(t, repo, done)
	if err := repo.SetCompleted(context.Background(), created.ID, time.Now()); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}

	active, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active passes, got %d", len(active))
	}
}

func TestListHistoryWindow(t *testing.T) {
	repo := NewMemoryVisitorRepository()
	old := time.Date(2025, 2, 1, 10, 0, 0, 0, time.Local)
	recent := time.Date(2025, 3, 8, 10, 0, 0, 0, time.Local)
	mustCreate(t, repo, pass("PASS-20250201-0001", "Old", "9000000001", old))
	mustCreate(t, repo, pass("PASS-20250308-0001", "Recent", "9000000002", recent))

	all, err := repo.ListHistory(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected full listing without a window, got %d", len(all))
	}

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 3, 9, 23, 59, 59, 0, time.Local)
	windowed, err := repo.ListHistory(context.Background(), &start, &end)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(windowed) != 1 || windowed[0].PassID != "PASS-20250308-0001" {
		t.Errorf("unexpected windowed result: %+v", windowed)
	}
}

func TestFindLatestVipActiveOnly(t *testing.T) {
	repo := NewMemoryVisitorRepository()
	vip := pass("VIP-20250309-0001", "VIP Visitor", "9000000001", time.Now())
	vip.IsVip = true
	vip.VipAccessID = "VIPKEY-20250309-0001"
	created := mustCreate(t, repo, vip)

	found, err := repo.FindLatestVip(context.Background(), "", "VIPKEY-20250309-0001", true)
	if err != nil || found == nil {
		t.Fatalf("expected active VIP visit, got %v %v", found, err)
	}

	if err := repo.SetCompleted(context.Background(), created.ID, time.Now()); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}

	found, err = repo.FindLatestVip(context.Background(), "", "VIPKEY-20250309-0001", true)
	if err != nil {
		t.Fatalf("FindLatestVip failed: %v", err)
	}
	if found != nil {
		t.Errorf("completed visit must not match activeOnly, got %+v", found)
	}

	found, err = repo.FindLatestVip(context.Background(), "", "VIPKEY-20250309-0001", false)
	if err != nil || found == nil {
		t.Fatalf("completed visit should still verify, got %v %v", found, err)
	}
}

func TestVipRecordIssue(t *testing.T) {
	repo := NewMemoryVipPassRepository()
	code, err := repo.Create(context.Background(), &domain.VipAccessCode{
		VipAccessID: "VIPKEY-20250309-0001",
		Label:       "VIP",
		Status:      domain.VipPassActive,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	issuedAt := time.Now()
	for i := 0; i < 2; i++ {
		if err := repo.RecordIssue(context.Background(), code.VipAccessID, "VIP-20250309-0001", issuedAt); err != nil {
			t.Fatalf("RecordIssue failed: %v", err)
		}
	}

	stored, err := repo.FindActiveByID(context.Background(), code.VipAccessID)
	if err != nil {
		t.Fatalf("FindActiveByID failed: %v", err)
	}
	if stored.IssueCount != 2 {
		t.Errorf("expected issue count 2, got %d", stored.IssueCount)
	}
	if stored.LastIssuedAt == nil || !stored.LastIssuedAt.Equal(issuedAt) {
		t.Errorf("expected last issued time recorded, got %v", stored.LastIssuedAt)
	}
}

func TestVipCreateRejectsDuplicateAccessID(t *testing.T) {
	repo := NewMemoryVipPassRepository()
	if _, err := repo.Create(context.Background(), &domain.VipAccessCode{
		VipAccessID: "VIPKEY-20250309-0001",
		Status:      domain.VipPassActive,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := repo.Create(context.Background(), &domain.VipAccessCode{
		VipAccessID: "VIPKEY-20250309-0001",
		Status:      domain.VipPassActive,
	})
	if !errors.Is(err, ErrDuplicateVipAccessID) {
		t.Fatalf("expected ErrDuplicateVipAccessID, got %v", err)
	}
}
