package schedule

import "strings"

// IdentityKey derives the normalized matching key for a registrant
// identity. All comparison sites (registration de-dup, unregistration,
// lookup) go through this single derivation so they cannot drift.
func IdentityKey(name, surname string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" + strings.ToLower(strings.TrimSpace(surname))
}

// Key returns the registrant's normalized identity key.
func (r Registrant) Key() string {
	return IdentityKey(r.Name, r.Surname)
}
