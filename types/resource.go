// Package types defines the resource model shared by sweeps and providers.
package types

// Well-known attribute keys populated by provider listers.
const (
	AttrTagCount         = "tag_count"
	AttrTagMutability    = "image_tag_mutability"
	AttrRepositoryURI    = "repository_uri"
	AttrCriticalFindings = "finding_critical"
	AttrHighFindings     = "finding_high"
	AttrRecentTags       = "recent_tags"
	AttrRefreshImages    = "refresh_images"
	AttrAccessKeyCount   = "access_key_count"
	AttrActiveAccessKeys = "active_access_key_count"
	AttrConsoleAccess    = "console_access"
	AttrCreatedAt        = "created_at"
)

// Resource is one inventoried cloud resource, built fresh per sweep
// from a listing call. Never persisted.
type Resource struct {
	Name   string            `json:"name"`   // unique within a region
	ID     string            `json:"id"`     // opaque handle for mutation calls (ARN)
	Region string            `json:"region"`
	Tags   map[string]string `json:"tags,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`

	// LookupErr is set when the secondary attribute lookup failed.
	// Such resources are excluded from predicate evaluation and
	// recorded as failures, but never lose the rest of the page.
	LookupErr string `json:"lookup_err,omitempty"`
}

// Attr returns a named attribute, or "" when absent.
func (r Resource) Attr(key string) string {
	if r.Attrs == nil {
		return ""
	}
	return r.Attrs[key]
}

// HasLookupError reports whether the attribute lookup for this resource failed.
func (r Resource) HasLookupError() bool {
	return r.LookupErr != ""
}
