package domain

import "time"

type VipPassStatus string

const (
	VipPassActive   VipPassStatus = "active"
	VipPassInactive VipPassStatus = "inactive"
)

// Defaults stamped onto auto-issued VIP visitor passes.
const (
	VipDefaultDepartment   = "IT"
	VipDefaultUnit         = "Gurugram"
	VipDefaultVisitType    = "VIP Visit"
	VipDefaultPersonToMeet = "Management"
	VipDefaultIDProofType  = "VIP PASS"
	VipDefaultRemarks      = "VIP auto entry"
)

// VipAccessCode is a reusable token that mints gate passes without full
// visitor data entry. Codes are never deleted; inactive codes reject
// issuance.
type VipAccessCode struct {
	ID               int64         `json:"id"`
	VipAccessID      string        `json:"vipAccessId"`
	Label            string        `json:"label"`
	Status           VipPassStatus `json:"status"`
	IssueCount       int           `json:"issueCount"`
	LastIssuedPassID string        `json:"lastIssuedPassId"`
	LastIssuedAt     *time.Time    `json:"lastIssuedAt"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
