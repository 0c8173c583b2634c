package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ricoauto/gatepass/internal/domain"
	"github.com/ricoauto/gatepass/internal/repository"
	"github.com/ricoauto/gatepass/pkg/events"
	"github.com/ricoauto/gatepass/pkg/logger"
	"github.com/ricoauto/gatepass/pkg/qr"
)

// maxIssueAttempts bounds the insert-retry loop that closes the
// check-then-use gap on pass id generation.
const maxIssueAttempts = 5

// PassService owns the gate-pass lifecycle: issue, validate, mark exit,
// delete, and the read-only listings.
type PassService struct {
	visitors      repository.VisitorRepository
	idgen         *IDGenerator
	publisher     events.Publisher
	adminPassword string
	qrSize        int
	now           func() time.Time
	renderQR      func(payload string, size int) (string, error)
}

func NewPassService(
	visitors repository.VisitorRepository,
	idgen *IDGenerator,
	publisher events.Publisher,
	adminPassword string,
	qrSize int,
) *PassService {
	return &PassService{
		visitors:      visitors,
		idgen:         idgen,
		publisher:     publisher,
		adminPassword: adminPassword,
		qrSize:        qrSize,
		now:           time.Now,
		renderQR:      qr.DataURL,
	}
}

// requireAdmin compares the supplied secret verbatim (after trimming)
// against the configured one.
func (s *PassService) requireAdmin(password string) error {
	if strings.TrimSpace(password) != s.adminPassword {
		return ErrUnauthorized
	}
	return nil
}

// IssueResult is returned by Issue and VIP issuance: the persisted record
// plus the rendered QR image, which may be empty when rendering failed.
type IssueResult struct {
	PassID        string
	QRCodeDataURL string
	Visitor       *domain.VisitorPass
}

// Issue validates and normalizes a front-desk submission, allocates a
// PASS id, and persists the new active pass. QR image rendering failure
// is logged and tolerated.
func (s *PassService) Issue(ctx context.Context, req *domain.CreatePassRequest) (*IssueResult, error) {
	if err := s.requireAdmin(req.AdminPassword); err != nil {
		return nil, err
	}

	companyTypeRaw := domain.NormalizeCompanyType(req.CompanyType)
	companyType := domain.CompanyNone
	if companyTypeRaw == string(domain.CompanyRICO) || companyTypeRaw == string(domain.CompanyOther) {
		companyType = domain.CompanyType(companyTypeRaw)
	}

	otherCompany := strings.TrimSpace(req.OtherCompanyName)
	if otherCompany == "" {
		otherCompany = strings.TrimSpace(req.CompanyName)
	}
	if otherCompany == "" && companyType != domain.CompanyRICO {
		otherCompany = strings.TrimSpace(req.Company)
	}

	carriesLaptop := false
	if parsed := domain.ParseCarriesLaptop(req.CarriesLaptop); parsed != nil {
		carriesLaptop = *parsed
	}

	v := &domain.VisitorPass{
		Name:               domain.NormalizeName(req.Name),
		Phone:              domain.NormalizePhone(req.Phone),
		VisitorType:        domain.NormalizeVisitorType(req.VisitorType),
		CompanyType:        companyType,
		Company:            otherCompany,
		RicoUnit:           domain.NormalizeRicoUnit(req.RicoUnit),
		VisitType:          strings.TrimSpace(req.VisitType),
		PersonToMeet:       strings.TrimSpace(req.PersonToMeet),
		Department:         domain.NormalizeDepartment(req.Department),
		IDProofType:        strings.TrimSpace(req.IDProofType),
		IDProofNumber:      strings.TrimSpace(req.IDProofNumber),
		CarriesLaptop:      carriesLaptop,
		LaptopSerialNumber: strings.TrimSpace(req.LaptopSerialNumber),
		Remarks:            strings.TrimSpace(req.Remarks),
	}
	if v.CompanyType == domain.CompanyRICO {
		v.Company = string(domain.CompanyRICO)
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"name", v.Name},
		{"phone", v.Phone},
		{"personToMeet", v.PersonToMeet},
		{"visitType", v.VisitType},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, InvalidInput("Missing required fields: " + strings.Join(missing, ", "))
	}

	if v.CompanyType == domain.CompanyRICO {
		if strings.TrimSpace(req.RicoUnit) != "" && v.RicoUnit == "" {
			return nil, InvalidInput("Select a valid RICO unit.")
		}
	} else {
		v.RicoUnit = ""
	}

	if strings.TrimSpace(req.Department) != "" && v.Department == "" {
		return nil, InvalidInput("Select a valid department.")
	}

	if !v.CarriesLaptop {
		v.LaptopSerialNumber = ""
	}

	created, err := s.createWithFreshID(ctx, v, "PASS")
	if err != nil {
		return nil, err
	}

	qrDataURL := s.renderPassQR(ctx, created)
	s.publishIssued(ctx, created)

	return &IssueResult{
		PassID:        created.PassID,
		QRCodeDataURL: qrDataURL,
		Visitor:       created,
	}, nil
}

// createWithFreshID allocates an id, stamps timestamps and QR payload,
// and inserts. On a duplicate pass id (a concurrent caller won the race)
// it allocates again and retries.
func (s *PassService) createWithFreshID(ctx context.Context, v *domain.VisitorPass, prefix string) (*domain.VisitorPass, error) {
	now := s.now()
	v.Status = domain.PassActive
	v.Date = now
	v.TimeIn = now
	v.TimeOut = nil

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		passID, err := s.idgen.NextVisitorPassID(ctx, prefix)
		if err != nil {
			return nil, err
		}

		v.PassID = passID
		v.QRPayload = domain.BuildQRPayload(passID, v.Phone)

		created, err := s.visitors.Create(ctx, v)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrDuplicatePassID) {
			return nil, fmt.Errorf("failed to create gate pass: %w", err)
		}

		logger.WarnContext(ctx, "Pass id taken by concurrent issuance, retrying",
			"pass_id", passID, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("failed to allocate a unique pass id after %d attempts", maxIssueAttempts)
}

func (s *PassService) renderPassQR(ctx context.Context, v *domain.VisitorPass) string {
	dataURL, err := s.renderQR(v.QRPayload, s.qrSize)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to generate QR code for pass",
			"error", err, "pass_id", v.PassID)
		return ""
	}
	return dataURL
}

func (s *PassService) publishIssued(ctx context.Context, v *domain.VisitorPass) {
	event := events.PassIssuedEvent{
		PassID:      v.PassID,
		Name:        v.Name,
		VisitorType: string(v.VisitorType),
		Department:  v.Department,
		IsVip:       v.IsVip,
		IssuedAt:    v.TimeIn,
	}
	if err := s.publisher.Publish(ctx, events.PassIssued, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish pass issued event",
			"error", err, "pass_id", v.PassID)
	}
}

func (s *PassService) publishExited(ctx context.Context, v *domain.VisitorPass) {
	event := events.PassExitedEvent{
		PassID: v.PassID,
		Name:   v.Name,
	}
	if v.TimeOut != nil {
		event.ExitedAt = *v.TimeOut
	}
	if err := s.publisher.Publish(ctx, events.PassExited, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish pass exited event",
			"error", err, "pass_id", v.PassID)
	}
}

// Validate authenticates a pass by id, optionally narrowed by phone.
func (s *PassService) Validate(ctx context.Context, passID, phone string) (*domain.VisitorPass, error) {
	passID = strings.ToUpper(strings.TrimSpace(passID))
	if passID == "" {
		return nil, InvalidInput("Pass ID is required.")
	}

	v, err := s.visitors.FindByPassID(ctx, passID, domain.NormalizePhone(phone))
	if err != nil {
		return nil, fmt.Errorf("failed to validate pass: %w", err)
	}
	if v == nil {
		return nil, NotFound("Pass not found.")
	}
	if !strings.EqualFold(string(v.Status), string(domain.PassActive)) {
		return nil, InvalidInput("Pass is not active.")
	}

	return v, nil
}

// MarkExit transitions an active pass to completed. Calling it again on a
// completed pass is an informational no-op.
func (s *PassService) MarkExit(ctx context.Context, passID, phone string) (*domain.VisitorPass, bool, error) {
	passID = strings.ToUpper(strings.TrimSpace(passID))
	if passID == "" {
		return nil, false, InvalidInput("Pass ID is required.")
	}

	v, err := s.visitors.FindByPassID(ctx, passID, domain.NormalizePhone(phone))
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark exit: %w", err)
	}
	if v == nil {
		return nil, false, NotFound("Pass not found.")
	}

	if strings.EqualFold(string(v.Status), string(domain.PassCompleted)) {
		return v, true, nil
	}

	now := s.now()
	if err := s.visitors.SetCompleted(ctx, v.ID, now); err != nil {
		return nil, false, fmt.Errorf("failed to mark exit: %w", err)
	}
	v.Status = domain.PassCompleted
	v.TimeOut = &now

	s.publishExited(ctx, v)
	return v, false, nil
}

// Delete removes a pass permanently. The admin secret is checked before
// any existence lookup.
func (s *PassService) Delete(ctx context.Context, passID, adminPassword string) (string, error) {
	passID = strings.ToUpper(strings.TrimSpace(passID))
	if passID == "" {
		return "", InvalidInput("Pass ID is required.")
	}
	if err := s.requireAdmin(adminPassword); err != nil {
		return "", err
	}

	deleted, err := s.visitors.DeleteByPassID(ctx, passID)
	if err != nil {
		return "", fmt.Errorf("failed to delete pass: %w", err)
	}
	if !deleted {
		return "", NotFound("Pass not found.")
	}

	event := events.PassDeletedEvent{PassID: passID, DeletedAt: s.now()}
	if err := s.publisher.Publish(ctx, events.PassDeleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish pass deleted event",
			"error", err, "pass_id", passID)
	}

	return passID, nil
}

// ListToday returns all passes dated within the current local calendar
// day, newest time-in first.
func (s *PassService) ListToday(ctx context.Context) ([]domain.VisitorPass, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	visitors, err := s.visitors.ListBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch today's visitors: %w", err)
	}
	return visitors, nil
}

// ListActive returns passes still inside the facility. Admin gated.
func (s *PassService) ListActive(ctx context.Context, adminPassword string) ([]domain.VisitorPass, error) {
	if err := s.requireAdmin(adminPassword); err != nil {
		return nil, err
	}

	visitors, err := s.visitors.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active passes: %w", err)
	}
	return visitors, nil
}

// HistoryFilters echoes back the window the history query resolved to.
type HistoryFilters struct {
	RangeDays *int    `json:"rangeDays"`
	FromDate  *string `json:"fromDate"`
	ToDate    *string `json:"toDate"`
}

// History returns passes in an explicit from/to date range, or a rolling
// day-count window, or everything when neither is given. Explicit dates
// take precedence; the day count is clamped to [1, 3650]. Admin gated.
func (s *PassService) History(ctx context.Context, adminPassword, rangeRaw, fromRaw, toRaw string) ([]domain.VisitorPass, *HistoryFilters, error) {
	if err := s.requireAdmin(adminPassword); err != nil {
		return nil, nil, err
	}

	filters := &HistoryFilters{}
	var rangeDays *int
	if n, err := parseInt(rangeRaw); err == nil {
		clamped := min(max(n, 1), 3650)
		rangeDays = &clamped
	}

	fromRaw = strings.TrimSpace(fromRaw)
	toRaw = strings.TrimSpace(toRaw)

	var start, end *time.Time

	switch {
	case fromRaw != "" || toRaw != "":
		if fromRaw == "" || toRaw == "" {
			return nil, nil, InvalidInput("Both FROM and TO dates are required.")
		}

		from, errFrom := parseCalendarDate(fromRaw)
		to, errTo := parseCalendarDate(toRaw)
		if errFrom != nil || errTo != nil {
			return nil, nil, InvalidInput("Enter valid FROM and TO dates.")
		}

		dayStart := from
		dayEnd := to.AddDate(0, 0, 1).Add(-time.Millisecond)
		if dayStart.After(dayEnd) {
			return nil, nil, InvalidInput("FROM date cannot be after TO date.")
		}

		start, end = &dayStart, &dayEnd
		filters.FromDate = &fromRaw
		filters.ToDate = &toRaw
		filters.RangeDays = rangeDays
	case rangeDays != nil:
		now := s.now()
		windowEnd := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(999*time.Millisecond), now.Location())
		windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, -(*rangeDays - 1))

		start, end = &windowStart, &windowEnd
		filters.RangeDays = rangeDays
	}

	visitors, err := s.visitors.ListHistory(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch pass history: %w", err)
	}
	return visitors, filters, nil
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}

func parseCalendarDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", raw, time.Local)
}
