package refcache

import "strings"

// Record is implemented by reference data rows. The code is the row's unique
// business key; it is matched case-insensitively.
type Record interface {
	GetCode() string
}

// Canonical returns the lookup form of a code: the code in upper case.
// Every map key, accessor name and synonym is derived from this form.
func Canonical(code string) string {
	return strings.ToUpper(code)
}
