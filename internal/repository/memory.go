package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ricoauto/gatepass/internal/domain"
)

// MemoryVisitorRepository is an in-memory VisitorRepository with the same
// observable semantics as the Postgres implementation. Used by tests and
// local experimentation.
type MemoryVisitorRepository struct {
	mu       sync.Mutex
	nextID   int64
	visitors []*domain.VisitorPass
}

func NewMemoryVisitorRepository() *MemoryVisitorRepository {
	return &MemoryVisitorRepository{nextID: 1}
}

// newestFirst orders by creation recency; insertion order breaks
// same-timestamp ties.
func newestFirst(visitors []*domain.VisitorPass) []*domain.VisitorPass {
	sorted := make([]*domain.VisitorPass, len(visitors))
	copy(sorted, visitors)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

func (m *MemoryVisitorRepository) Create(_ context.Context, v *domain.VisitorPass) (*domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.visitors {
		if existing.PassID == v.PassID {
			return nil, ErrDuplicatePassID
		}
	}

	stored := *v
	stored.ID = m.nextID
	m.nextID++
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.visitors = append(m.visitors, &stored)
	result := stored
	return &result, nil
}

func (m *MemoryVisitorRepository) CountByPassIDPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, v := range m.visitors {
		if strings.HasPrefix(v.PassID, prefix) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryVisitorRepository) PassIDExists(_ context.Context, passID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.visitors {
		if v.PassID == passID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryVisitorRepository) PhoneExists(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.visitors {
		if v.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryVisitorRepository) findLatest(match func(*domain.VisitorPass) bool) *domain.VisitorPass {
	for _, v := range newestFirst(m.visitors) {
		if match(v) {
			result := *v
			return &result
		}
	}
	return nil
}

func (m *MemoryVisitorRepository) FindByPassID(_ context.Context, passID, phone string) (*domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.findLatest(func(v *domain.VisitorPass) bool {
		if v.PassID != passID {
			return false
		}
		return phone == "" || v.Phone == phone
	}), nil
}

func (m *MemoryVisitorRepository) FindLatestByNameAndPhone(_ context.Context, name, phone string) (*domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.findLatest(func(v *domain.VisitorPass) bool {
		return strings.EqualFold(v.Name, name) && v.Phone == phone
	}), nil
}

func (m *MemoryVisitorRepository) FindLatestByPhone(_ context.Context, phone string) (*domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.findLatest(func(v *domain.VisitorPass) bool {
		return v.Phone == phone
	}), nil
}

func (m *MemoryVisitorRepository) FindLatestByName(_ context.Context, name string) (*domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.findLatest(func(v *domain.VisitorPass) bool {
		return strings.EqualFold(v.Name, name)
	}), nil
}

func (m *MemoryVisitorRepository) SuggestNames(_ context.Context, prefix string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var names []string
	lowered := strings.ToLower(prefix)
	for _, v := range newestFirst(m.visitors) {
		if strings.HasPrefix(strings.ToLower(v.Name), lowered) {
			names = append(names, v.Name)
			if len(names) >= limit {
				break
			}
		}
	}
	return names, nil
}

func (m *MemoryVisitorRepository) SetCompleted(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.visitors {
		if v.ID == id {
			v.Status = domain.PassCompleted
			exitAt := at
			v.TimeOut = &exitAt
			v.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (m *MemoryVisitorRepository) DeleteByPassID(_ context.Context, passID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, v := range m.visitors {
		if v.PassID == passID {
			m.visitors = append(m.visitors[:i], m.visitors[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryVisitorRepository) ListBetween(_ context.Context, start, end time.Time) ([]domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.VisitorPass
	for _, v := range m.visitors {
		if !v.Date.Before(start) && !v.Date.After(end) {
			matched = append(matched, v)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TimeIn.After(matched[j].TimeIn)
	})
	return copyAll(matched), nil
}

func (m *MemoryVisitorRepository) ListActive(_ context.Context) ([]domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.VisitorPass
	for _, v := range m.visitors {
		active := strings.EqualFold(string(v.Status), string(domain.PassActive)) ||
			(v.TimeOut == nil && !strings.EqualFold(string(v.Status), string(domain.PassCompleted)))
		if active {
			matched = append(matched, v)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TimeIn.Before(matched[j].TimeIn)
	})
	return copyAll(matched), nil
}

func (m *MemoryVisitorRepository) ListHistory(_ context.Context, start, end *time.Time) ([]domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inWindow := func(t time.Time) bool {
		return !t.Before(*start) && !t.After(*end)
	}

	var matched []*domain.VisitorPass
	for _, v := range m.visitors {
		if start == nil || end == nil ||
			inWindow(v.Date) || inWindow(v.TimeIn) || inWindow(v.CreatedAt) {
			matched = append(matched, v)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].TimeIn.Equal(matched[j].TimeIn) {
			return matched[i].TimeIn.After(matched[j].TimeIn)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return copyAll(matched), nil
}

func (m *MemoryVisitorRepository) FindLatestVip(_ context.Context, passID, vipAccessID string, activeOnly bool) (*domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make([]*domain.VisitorPass, 0, len(m.visitors))
	for _, v := range m.visitors {
		if !v.IsVip {
			continue
		}
		if passID != "" && v.PassID != passID {
			continue
		}
		if passID == "" && v.VipAccessID != vipAccessID {
			continue
		}
		if activeOnly && v.Status != domain.PassActive {
			continue
		}
		candidates = append(candidates, v)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TimeIn.After(candidates[j].TimeIn)
	})
	if len(candidates) == 0 {
		return nil, nil
	}
	result := *candidates[0]
	return &result, nil
}

func (m *MemoryVisitorRepository) ListVipLogs(_ context.Context, limit int) ([]domain.VisitorPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > 200 {
		limit = 30
	}

	var matched []*domain.VisitorPass
	for _, v := range m.visitors {
		if v.IsVip {
			matched = append(matched, v)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TimeIn.After(matched[j].TimeIn)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return copyAll(matched), nil
}

func copyAll(visitors []*domain.VisitorPass) []domain.VisitorPass {
	out := make([]domain.VisitorPass, 0, len(visitors))
	for _, v := range visitors {
		out = append(out, *v)
	}
	return out
}

// MemoryVipPassRepository is the in-memory VipPassRepository counterpart.
type MemoryVipPassRepository struct {
	mu     sync.Mutex
	nextID int64
	codes  []*domain.VipAccessCode
}

func NewMemoryVipPassRepository() *MemoryVipPassRepository {
	return &MemoryVipPassRepository{nextID: 1}
}

func (m *MemoryVipPassRepository) Create(_ context.Context, code *domain.VipAccessCode) (*domain.VipAccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.codes {
		if existing.VipAccessID == code.VipAccessID {
			return nil, ErrDuplicateVipAccessID
		}
	}

	stored := *code
	stored.ID = m.nextID
	m.nextID++
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.codes = append(m.codes, &stored)
	result := stored
	return &result, nil
}

func (m *MemoryVipPassRepository) CountByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, c := range m.codes {
		if strings.HasPrefix(c.VipAccessID, prefix) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryVipPassRepository) Exists(_ context.Context, vipAccessID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.codes {
		if c.VipAccessID == vipAccessID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryVipPassRepository) FindActiveByID(_ context.Context, vipAccessID string) (*domain.VipAccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.codes {
		if c.VipAccessID == vipAccessID && c.Status == domain.VipPassActive {
			result := *c
			return &result, nil
		}
	}
	return nil, nil
}

func (m *MemoryVipPassRepository) RecordIssue(_ context.Context, vipAccessID, passID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.codes {
		if c.VipAccessID == vipAccessID {
			c.IssueCount++
			c.LastIssuedPassID = passID
			issuedAt := at
			c.LastIssuedAt = &issuedAt
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}
