package domain

import "time"

type PassStatus string

const (
	PassActive    PassStatus = "active"
	PassCompleted PassStatus = "completed"
)

type VisitorType string

const (
	VisitorCustomer    VisitorType = "Customer"
	VisitorVendor      VisitorType = "Vendor"
	VisitorVisitor     VisitorType = "Visitor"
	VisitorMaintenance VisitorType = "Maintenance"
)

type CompanyType string

const (
	CompanyRICO  CompanyType = "RICO"
	CompanyOther CompanyType = "Other"
	CompanyNone  CompanyType = ""
)

// DepartmentOptions are the departments a visitor can be issued against.
// Anything else is bucketed as "Other" in analytics.
var DepartmentOptions = []string{
	"IT",
	"HR",
	"Quality",
	"R&D",
	"Sales and Marketing",
	"Production/Manufacturing",
}

var VisitorTypeOptions = []VisitorType{
	VisitorCustomer,
	VisitorVendor,
	VisitorVisitor,
	VisitorMaintenance,
}

// RicoUnits are the RICO plant locations; only meaningful when the
// visitor's company type is RICO.
var RicoUnits = []string{
	"Bawal",
	"Pathredi",
	"Dharuhera",
	"Chennai",
	"Hosur",
	"Gurugram",
	"Haridwar",
}

// VisitorPass is one physical visit: issued at the gate, closed when the
// visitor exits. pass_id is globally unique; timeOut is null exactly while
// the pass is active.
type VisitorPass struct {
	ID                 int64       `json:"id"`
	PassID             string      `json:"passId"`
	Name               string      `json:"name"`
	Phone              string      `json:"phone"`
	VisitorType        VisitorType `json:"visitorType"`
	CompanyType        CompanyType `json:"companyType"`
	Company            string      `json:"company"`
	RicoUnit           string      `json:"ricoUnit"`
	VisitType          string      `json:"visitType"`
	PersonToMeet       string      `json:"personToMeet"`
	Department         string      `json:"department"`
	IDProofType        string      `json:"idProofType"`
	IDProofNumber      string      `json:"idProofNumber"`
	CarriesLaptop      bool        `json:"carriesLaptop"`
	LaptopSerialNumber string      `json:"laptopSerialNumber"`
	Remarks            string      `json:"remarks"`
	IsVip              bool        `json:"isVip"`
	VipAccessID        string      `json:"vipAccessId"`
	QRPayload          string      `json:"qrPayload"`
	Status             PassStatus  `json:"status"`
	Date               time.Time   `json:"date"`
	TimeIn             time.Time   `json:"timeIn"`
	TimeOut            *time.Time  `json:"timeOut"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// CreatePassRequest is the raw front-desk form submission before
// normalization.
type CreatePassRequest struct {
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	VisitorType        string `json:"visitorType"`
	CompanyType        string `json:"companyType"`
	Company            string `json:"company"`
	CompanyName        string `json:"companyName"`
	OtherCompanyName   string `json:"otherCompanyName"`
	RicoUnit           string `json:"ricoUnit"`
	VisitType          string `json:"visitType"`
	PersonToMeet       string `json:"personToMeet"`
	Department         string `json:"department"`
	IDProofType        string `json:"idProofType"`
	IDProofNumber      string `json:"idProofNumber"`
	CarriesLaptop      any    `json:"carriesLaptop"`
	LaptopSerialNumber string `json:"laptopSerialNumber"`
	Remarks            string `json:"remarks"`
	AdminPassword      string `json:"adminPassword"`
}
