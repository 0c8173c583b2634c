package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ricoauto/gatepass/internal/repository"
)

// VipKeyPrefix is the fixed prefix for VIP access codes.
const VipKeyPrefix = "VIPKEY"

// maxVipPhoneAttempts bounds the random probe for a free synthetic phone
// number before falling back to a timestamp-derived value.
const maxVipPhoneAttempts = 30

// IDGenerator allocates human-readable, date-scoped sequential identifiers
// of the form "{PREFIX}-{YYYYMMDD}-{NNNN}". The 4-digit padding is
// cosmetic: sequences past 9999 simply render wider.
//
// The probe below is check-then-use, so two concurrent callers can still
// race between the existence check and the insert. The unique constraint
// on the target column backstops that: callers retry through
// NextVisitorPassID when the insert reports a duplicate.
type IDGenerator struct {
	visitors repository.VisitorRepository
	vipCodes repository.VipPassRepository
	now      func() time.Time
}

func NewIDGenerator(visitors repository.VisitorRepository, vipCodes repository.VipPassRepository) *IDGenerator {
	return &IDGenerator{
		visitors: visitors,
		vipCodes: vipCodes,
		now:      time.Now,
	}
}

func dateStamp(t time.Time) string {
	return t.Format("20060102")
}

func formatID(keyPrefix string, sequence int) string {
	return fmt.Sprintf("%s%04d", keyPrefix, sequence)
}

// NextVisitorPassID returns the first unused pass id for the prefix and
// the current local date. Seeds the sequence from the count of ids already
// issued today, then probes upward past any taken value.
func (g *IDGenerator) NextVisitorPassID(ctx context.Context, prefix string) (string, error) {
	keyPrefix := fmt.Sprintf("%s-%s-", prefix, dateStamp(g.now()))

	count, err := g.visitors.CountByPassIDPrefix(ctx, keyPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to count pass ids: %w", err)
	}

	for sequence := count + 1; ; sequence++ {
		passID := formatID(keyPrefix, sequence)
		exists, err := g.visitors.PassIDExists(ctx, passID)
		if err != nil {
			return "", fmt.Errorf("failed to check pass id: %w", err)
		}
		if !exists {
			return passID, nil
		}
	}
}

// NextVipAccessID is the VIP-code flavor: fixed VIPKEY prefix, its own
// date-scoped counter against the VIP code collection.
func (g *IDGenerator) NextVipAccessID(ctx context.Context) (string, error) {
	keyPrefix := fmt.Sprintf("%s-%s-", VipKeyPrefix, dateStamp(g.now()))

	count, err := g.vipCodes.CountByPrefix(ctx, keyPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to count vip access ids: %w", err)
	}

	for sequence := count + 1; ; sequence++ {
		vipAccessID := formatID(keyPrefix, sequence)
		exists, err := g.vipCodes.Exists(ctx, vipAccessID)
		if err != nil {
			return "", fmt.Errorf("failed to check vip access id: %w", err)
		}
		if !exists {
			return vipAccessID, nil
		}
	}
}

// NextVipPhone synthesizes a 10-digit phone number for VIP auto entries:
// random candidates checked against existing visitors, then a
// timestamp-derived fallback. The fallback is not re-checked for
// collision; that weak guarantee is accepted for this workload.
func (g *IDGenerator) NextVipPhone(ctx context.Context) (string, error) {
	for i := 0; i < maxVipPhoneAttempts; i++ {
		phone := fmt.Sprintf("9%d", 100000000+rand.Intn(900000000))
		exists, err := g.visitors.PhoneExists(ctx, phone)
		if err != nil {
			return "", fmt.Errorf("failed to check phone: %w", err)
		}
		if !exists {
			return phone, nil
		}
	}

	millis := fmt.Sprintf("%d", g.now().UnixMilli())
	return "9" + millis[len(millis)-9:], nil
}
