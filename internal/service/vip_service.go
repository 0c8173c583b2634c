package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ricoauto/gatepass/internal/domain"
	"github.com/ricoauto/gatepass/internal/repository"
	"github.com/ricoauto/gatepass/pkg/events"
	"github.com/ricoauto/gatepass/pkg/logger"
)

// VipService manages reusable VIP access codes and the fast-path
// issuance that mints passes without full visitor data entry.
type VipService struct {
	visitors repository.VisitorRepository
	vipCodes repository.VipPassRepository
	idgen    *IDGenerator
	passes   *PassService
}

func NewVipService(
	visitors repository.VisitorRepository,
	vipCodes repository.VipPassRepository,
	idgen *IDGenerator,
	passes *PassService,
) *VipService {
	return &VipService{
		visitors: visitors,
		vipCodes: vipCodes,
		idgen:    idgen,
		passes:   passes,
	}
}

// Generate creates a new active VIP access code. Admin gated.
func (s *VipService) Generate(ctx context.Context, adminPassword, label string) (*domain.VipAccessCode, error) {
	if err := s.passes.requireAdmin(adminPassword); err != nil {
		return nil, err
	}

	label = strings.TrimSpace(label)
	if label == "" {
		label = "VIP"
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		vipAccessID, err := s.idgen.NextVipAccessID(ctx)
		if err != nil {
			return nil, err
		}

		created, err := s.vipCodes.Create(ctx, &domain.VipAccessCode{
			VipAccessID: vipAccessID,
			Label:       label,
			Status:      domain.VipPassActive,
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repository.ErrDuplicateVipAccessID) {
			return nil, fmt.Errorf("failed to generate VIP pass ID: %w", err)
		}

		logger.WarnContext(ctx, "VIP access id taken by concurrent generation, retrying",
			"vip_access_id", vipAccessID, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("failed to allocate a unique VIP access id after %d attempts", maxIssueAttempts)
}

// Issue mints a VIP visitor pass against an active access code: fixed
// defaults, a synthetic phone number, and the VIP pass id prefix. The
// code's issue counter advances by one per successful issuance.
func (s *VipService) Issue(ctx context.Context, vipAccessID string) (*IssueResult, error) {
	vipAccessID = strings.ToUpper(strings.TrimSpace(vipAccessID))
	if vipAccessID == "" {
		return nil, InvalidInput("VIP pass ID is required.")
	}

	code, err := s.vipCodes.FindActiveByID(ctx, vipAccessID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue VIP gate pass: %w", err)
	}
	if code == nil {
		return nil, NotFound("VIP pass ID not found or inactive.")
	}

	phone, err := s.idgen.NextVipPhone(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to issue VIP gate pass: %w", err)
	}

	name := "VIP Visitor"
	if code.Label != "" {
		name = "VIP Visitor - " + code.Label
	}

	v := &domain.VisitorPass{
		Name:          name,
		Phone:         phone,
		VisitorType:   domain.VisitorVisitor,
		CompanyType:   domain.CompanyRICO,
		Company:       string(domain.CompanyRICO),
		RicoUnit:      domain.VipDefaultUnit,
		VisitType:     domain.VipDefaultVisitType,
		PersonToMeet:  domain.VipDefaultPersonToMeet,
		Department:    domain.VipDefaultDepartment,
		IDProofType:   domain.VipDefaultIDProofType,
		IDProofNumber: vipAccessID,
		Remarks:       domain.VipDefaultRemarks,
		IsVip:         true,
		VipAccessID:   vipAccessID,
	}

	created, err := s.passes.createWithFreshID(ctx, v, "VIP")
	if err != nil {
		return nil, err
	}

	qrDataURL := s.passes.renderPassQR(ctx, created)

	if err := s.vipCodes.RecordIssue(ctx, vipAccessID, created.PassID, created.TimeIn); err != nil {
		logger.ErrorContext(ctx, "Failed to record VIP issuance",
			"error", err, "vip_access_id", vipAccessID, "pass_id", created.PassID)
	}

	s.passes.publishIssued(ctx, created)

	vipEvent := events.VipIssuedEvent{
		PassID:      created.PassID,
		VipAccessID: vipAccessID,
		Label:       code.Label,
		IssuedAt:    created.TimeIn,
	}
	if err := s.passes.publisher.Publish(ctx, events.VipIssued, vipEvent); err != nil {
		logger.ErrorContext(ctx, "Failed to publish VIP issued event",
			"error", err, "vip_access_id", vipAccessID, "pass_id", created.PassID)
	}

	return &IssueResult{
		PassID:        created.PassID,
		QRCodeDataURL: qrDataURL,
		Visitor:       created,
	}, nil
}

// Verify looks up the most recent VIP visit by pass id or access code.
func (s *VipService) Verify(ctx context.Context, passID, vipAccessID string) (*domain.VisitorPass, error) {
	passID = strings.ToUpper(strings.TrimSpace(passID))
	vipAccessID = strings.ToUpper(strings.TrimSpace(vipAccessID))
	if passID == "" && vipAccessID == "" {
		return nil, InvalidInput("Enter pass ID or VIP pass ID.")
	}

	v, err := s.visitors.FindLatestVip(ctx, passID, vipAccessID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to verify VIP entry: %w", err)
	}
	if v == nil {
		return nil, NotFound("VIP visit record not found.")
	}
	return v, nil
}

// Checkout marks the most recent active VIP visit as exited.
func (s *VipService) Checkout(ctx context.Context, passID, vipAccessID string) (*domain.VisitorPass, error) {
	passID = strings.ToUpper(strings.TrimSpace(passID))
	vipAccessID = strings.ToUpper(strings.TrimSpace(vipAccessID))
	if passID == "" && vipAccessID == "" {
		return nil, InvalidInput("Enter pass ID or VIP pass ID.")
	}

	v, err := s.visitors.FindLatestVip(ctx, passID, vipAccessID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to complete VIP checkout: %w", err)
	}
	if v == nil {
		return nil, NotFound("Active VIP visit not found.")
	}

	now := s.passes.now()
	if err := s.visitors.SetCompleted(ctx, v.ID, now); err != nil {
		return nil, fmt.Errorf("failed to complete VIP checkout: %w", err)
	}
	v.Status = domain.PassCompleted
	v.TimeOut = &now

	s.passes.publishExited(ctx, v)
	return v, nil
}

// Logs returns recent VIP visits, newest first. The limit is clamped to
// [1, 200] and defaults to 30.
func (s *VipService) Logs(ctx context.Context, limitRaw string) ([]domain.VisitorPass, error) {
	limit := 30
	if n, err := parseInt(limitRaw); err == nil {
		limit = min(max(n, 1), 200)
	}

	visitors, err := s.visitors.ListVipLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load VIP logs: %w", err)
	}
	return visitors, nil
}
