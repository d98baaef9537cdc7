package payout

import "strings"

// Metadata keys checked for tenant attribution, in priority order. The
// snake_case key is canonical; the camelCase alias survives from records
// written before the key was standardized.
const (
	MetadataTenantKey      = "tenant_id"
	MetadataTenantAliasKey = "tenantId"
)

// tenantMetadataKeys is the fixed priority list used for attribution
var tenantMetadataKeys = []string{MetadataTenantKey, MetadataTenantAliasKey}

// NormalizeTenant canonicalizes a tenant identifier for comparison.
// Raw header or metadata values are never compared directly; case and
// surrounding whitespace must not affect attribution.
func NormalizeTenant(tenant string) string {
	return strings.ToLower(strings.TrimSpace(tenant))
}

// AttributedTenant returns the normalized tenant a record is attributed to,
// or the empty string when the record carries no attribution metadata.
func AttributedTenant(metadata map[string]string) string {
	for _, key := range tenantMetadataKeys {
		if v, ok := metadata[key]; ok {
			if normalized := NormalizeTenant(v); normalized != "" {
				return normalized
			}
		}
	}
	return ""
}

// MatchesTenant reports whether a record with the given metadata is visible
// to the requesting tenant.
//
// Attributed records match only their own tenant. Unattributed records match
// iff allowUnattributed is set. An empty requesting tenant acts as a
// wildcard; the public path always supplies a tenant (enforced by the auth
// boundary), so the wildcard only serves internal defensive calls.
func MatchesTenant(metadata map[string]string, requestingTenant string, allowUnattributed bool) bool {
	requester := NormalizeTenant(requestingTenant)
	if requester == "" {
		return true
	}
	attributed := AttributedTenant(metadata)
	if attributed == "" {
		return allowUnattributed
	}
	return attributed == requester
}
