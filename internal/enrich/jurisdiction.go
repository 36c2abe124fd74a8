package enrich

import "github.com/regalytics/regalytics/internal/source"

// Jurisdiction is the resolved country and region of an authority.
type Jurisdiction struct {
	Country string
	Region  string
}

// ResolveJurisdiction looks up the authority in the directory and maps
// its jurisdiction to country and its parent authority to region,
// falling back to the country when no parent is recorded. A directory
// miss or empty authority yields empty values; that is a valid
// outcome, not a degradation.
func ResolveJurisdiction(authority string, dir *source.AuthorityDirectory) Jurisdiction {
	if dir == nil {
		return Jurisdiction{}
	}
	a, found := dir.Lookup(authority)
	if !found {
		return Jurisdiction{}
	}

	region := a.ParentAuthority
	if region == "" {
		region = a.Jurisdiction
	}
	return Jurisdiction{Country: a.Jurisdiction, Region: region}
}
