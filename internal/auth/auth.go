// Package auth maps bearer tokens to member identities.
package auth

import (
	"strings"
)

// Identity is the caller established from a bearer token.
type Identity struct {
	MemberID string
	IsAdmin  bool
}

// Resolver turns a bearer token into an identity.
type Resolver interface {
	Resolve(token string) (Identity, bool)
}

// TokenMap is a static token table loaded from configuration.
type TokenMap struct {
	tokens map[string]Identity
}

// ParseTokenMap parses "token=member,token=member:admin" into a resolver.
// Malformed entries are skipped.
func ParseTokenMap(raw string) *TokenMap {
	tokens := make(map[string]Identity)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, target, ok := strings.Cut(entry, "=")
		if !ok || token == "" || target == "" {
			continue
		}
		memberID, role, _ := strings.Cut(target, ":")
		if memberID == "" {
			continue
		}
		tokens[token] = Identity{
			MemberID: memberID,
			IsAdmin:  role == "admin",
		}
	}
	return &TokenMap{tokens: tokens}
}

// Resolve looks the token up. Unknown tokens yield no identity.
func (m *TokenMap) Resolve(token string) (Identity, bool) {
	id, ok := m.tokens[token]
	return id, ok
}

// Empty reports whether no tokens are configured, which disables the API.
func (m *TokenMap) Empty() bool {
	return len(m.tokens) == 0
}
