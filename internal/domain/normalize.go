package domain

import (
	"strings"
	"unicode"
)

// NormalizeName trims and collapses internal whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NormalizePhone strips everything except digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCompanyType maps case-insensitive "rico"/"other" onto the
// canonical values and passes anything else through trimmed.
func NormalizeCompanyType(value string) string {
	clean := strings.TrimSpace(value)
	switch {
	case strings.EqualFold(clean, string(CompanyRICO)):
		return string(CompanyRICO)
	case strings.EqualFold(clean, string(CompanyOther)):
		return string(CompanyOther)
	default:
		return clean
	}
}

// NormalizeRicoUnit matches case-insensitively against the unit enum.
// Unrecognized values normalize to "".
func NormalizeRicoUnit(value string) string {
	clean := strings.TrimSpace(value)
	for _, unit := range RicoUnits {
		if strings.EqualFold(unit, clean) {
			return unit
		}
	}
	return ""
}

// NormalizeDepartment matches case-insensitively against the department
// enum. Unrecognized values normalize to "".
func NormalizeDepartment(value string) string {
	clean := strings.TrimSpace(value)
	for _, dept := range DepartmentOptions {
		if strings.EqualFold(dept, clean) {
			return dept
		}
	}
	return ""
}

// NormalizeVisitorType matches case-insensitively against the visitor
// type enum, defaulting to Visitor.
func NormalizeVisitorType(value string) VisitorType {
	clean := strings.TrimSpace(value)
	for _, vt := range VisitorTypeOptions {
		if strings.EqualFold(string(vt), clean) {
			return vt
		}
	}
	return VisitorVisitor
}

// ParseCarriesLaptop interprets the form value for the laptop checkbox.
// Returns nil when the value is absent or unrecognized.
func ParseCarriesLaptop(value any) *bool {
	if b, ok := value.(bool); ok {
		return &b
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case float64:
		if v == 1 {
			raw = "1"
		} else if v == 0 {
			raw = "0"
		}
	default:
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "1":
		t := true
		return &t
	case "no", "false", "0":
		f := false
		return &f
	}
	return nil
}

// BuildQRPayload builds the pipe-delimited payload the gate scanner
// parses: "RICO-PASS|{PASSID}|{PHONE}".
func BuildQRPayload(passID, phone string) string {
	return "RICO-PASS|" + strings.ToUpper(strings.TrimSpace(passID)) + "|" + NormalizePhone(phone)
}
