package directory

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// LooksLikeDN reports whether an identifier is in distinguished-name form.
func LooksLikeDN(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "=") {
		return false
	}
	_, err := ldap.ParseDN(s)
	return err == nil
}

// EscapeDNValue escapes special characters in a DN attribute value per RFC 4514.
func EscapeDNValue(value string) string {
	if value == "" {
		return value
	}

	var sb strings.Builder
	sb.Grow(len(value) + 8)

	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			sb.WriteRune('\\')
			sb.WriteRune(r)
		case '#':
			if i == 0 {
				sb.WriteRune('\\')
			}
			sb.WriteRune(r)
		case ' ':
			if i == 0 || i == len(value)-1 {
				sb.WriteRune('\\')
			}
			sb.WriteRune(r)
		case 0:
			sb.WriteString(`\00`)
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// splitLeadingRDN splits a DN into its leading RDN and the remaining container,
// slicing the input at the first unescaped comma so the caller's attribute-type
// casing survives. These values feed ModifyDN requests, which echo them back to
// the directory verbatim.
func splitLeadingRDN(dn string) (rdn, container string, ok bool) {
	dn = strings.TrimSpace(dn)
	if _, err := ldap.ParseDN(dn); err != nil {
		return "", "", false
	}

	escaped := false
	for i, r := range dn {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case ',':
			return strings.TrimSpace(dn[:i]), strings.TrimSpace(dn[i+1:]), true
		}
	}
	return dn, "", true
}

// ParentContainer returns the container DN of an object, i.e. everything after
// the leading RDN. Returns "" for single-component or unparseable DNs.
func ParentContainer(dn string) string {
	_, container, ok := splitLeadingRDN(dn)
	if !ok {
		return ""
	}
	return container
}

// LeadingRDN returns the first RDN of a DN (e.g. "CN=GrpA"), or "" when the DN
// cannot be parsed.
func LeadingRDN(dn string) string {
	rdn, _, ok := splitLeadingRDN(dn)
	if !ok {
		return ""
	}
	return rdn
}

// EqualDN compares two DNs by their parsed RDN components, so casing and
// inter-component whitespace do not affect the result. Unparseable input falls
// back to a case-insensitive string comparison.
func EqualDN(a, b string) bool {
	da, errA := ldap.ParseDN(a)
	db, errB := ldap.ParseDN(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return da.EqualFold(db)
}
