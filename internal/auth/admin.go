// Package auth handles player accounts, session tokens, and the
// administrator allow-list.
package auth

import "strings"

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AdminList is the configured set of administrator identities.
type AdminList struct {
	emails map[string]struct{}
}

// NewAdminList builds an allow-list from email addresses. Matching is case-insensitive.
func NewAdminList(emails []string) AdminList {
	l := AdminList{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		e = normalizeEmail(e)
		if e != "" {
			l.emails[e] = struct{}{}
		}
	}
	return l
}

// Contains reports whether email is an administrator.
func (l AdminList) Contains(email string) bool {
	_, ok := l.emails[normalizeEmail(email)]
	return ok
}

// Len returns the number of administrators.
func (l AdminList) Len() int {
	return len(l.emails)
}

// IsAdmin reports whether the principal is on the allow-list.
func (l AdminList) IsAdmin(p Principal) bool {
	return l.Contains(p.Email)
}

// CanDeleteBattle reports whether actor may delete a battle logged by ownerEmail:
// creators may delete their own battles, administrators any battle.
func CanDeleteBattle(actor Principal, ownerEmail string, admins AdminList) bool {
	cu := normalizeEmail(actor.Email)
	if cu == "" {
		return false
	}
	if cu == normalizeEmail(ownerEmail) {
		return true
	}
	return admins.Contains(cu)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
