package directory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/go-objectsid"
	"github.com/google/uuid"
)

// Active Directory stores objectGUID in mixed-endian order: the first three
// fields are little-endian, the final eight bytes big-endian.

var hyphenatedGUIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidGUID checks whether a string is a hyphenated GUID.
func IsValidGUID(s string) bool {
	return hyphenatedGUIDRegex.MatchString(s)
}

// GUIDFromBytes converts an Active Directory objectGUID byte value to its
// canonical hyphenated string form.
func GUIDFromBytes(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("invalid GUID byte length: expected 16, got %d", len(b))
	}

	ordered := make([]byte, 16)
	ordered[0], ordered[1], ordered[2], ordered[3] = b[3], b[2], b[1], b[0]
	ordered[4], ordered[5] = b[5], b[4]
	ordered[6], ordered[7] = b[7], b[6]
	copy(ordered[8:], b[8:])

	id, err := uuid.FromBytes(ordered)
	if err != nil {
		return "", fmt.Errorf("failed to decode GUID: %w", err)
	}

	return id.String(), nil
}

// GUIDToBytes converts a hyphenated GUID string to Active Directory byte order.
func GUIDToBytes(s string) ([]byte, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid GUID %q: %w", s, err)
	}

	b := id[:]
	ad := make([]byte, 16)
	ad[0], ad[1], ad[2], ad[3] = b[3], b[2], b[1], b[0]
	ad[4], ad[5] = b[5], b[4]
	ad[6], ad[7] = b[7], b[6]
	copy(ad[8:], b[8:])

	return ad, nil
}

// GUIDSearchFilter builds an LDAP filter matching an objectGUID value.
func GUIDSearchFilter(guid string) (string, error) {
	b, err := GUIDToBytes(guid)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for _, octet := range b {
		fmt.Fprintf(&sb, `\%02x`, octet)
	}

	return fmt.Sprintf("(objectGUID=%s)", sb.String()), nil
}

// ExtractGUID returns the objectGUID of an entry as a hyphenated string.
// Entries synthesized in tests may carry the GUID as a plain string value.
func ExtractGUID(entry *Entry) string {
	if entry == nil {
		return ""
	}

	if raw := entry.GetRawAttributeValue("objectGUID"); len(raw) == 16 {
		if guid, err := GUIDFromBytes(raw); err == nil {
			return guid
		}
	}

	if s := entry.GetAttributeValue("objectGUID"); IsValidGUID(s) {
		return strings.ToLower(s)
	}

	return ""
}

// ExtractSID returns the objectSid of an entry in S-1-5-21-... form, or ""
// when the attribute is absent or malformed.
func ExtractSID(entry *Entry) string {
	if entry == nil {
		return ""
	}

	if raw := entry.GetRawAttributeValue("objectSid"); len(raw) > 0 {
		return decodeSID(raw)
	}

	if s := entry.GetAttributeValue("objectSid"); strings.HasPrefix(s, "S-1-") {
		return s
	}

	return ""
}

// decodeSID decodes a binary SID, absorbing the panic objectsid raises on
// truncated input.
func decodeSID(raw []byte) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return objectsid.Decode(raw).String()
}
