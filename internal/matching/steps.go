package matching

import (
	"strings"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// MaxDistanceKm bounds the search radius around the candidate's desired area.
const MaxDistanceKm = 25.0

type distanceFilter struct {
	origin Origin
	maxKm  float64
}

// NewDistance creates the stage that annotates each posting with its
// great-circle distance from origin and drops postings beyond maxKm.
func NewDistance(origin Origin, maxKm float64) Filter {
	return &distanceFilter{origin: origin, maxKm: maxKm}
}

func (f *distanceFilter) Name() string { return "distance" }

func (f *distanceFilter) Reason() string {
	return "希望勤務地の25km以内に条件に合うサロンが見つかりませんでした。"
}

func (f *distanceFilter) Apply(p *salon.Postings) Step {
	initial := p.Len()
	dropped := p.Retain(func(posting *salon.Posting) bool {
		posting.Distance = salon.DistanceKm(f.origin.Latitude, f.origin.Longitude, posting.Latitude, posting.Longitude)
		return posting.Distance <= f.maxKm
	})
	return Step{Initial: initial, Dropped: dropped, Left: p.Len()}
}

type recruitingFilter struct{}

// NewRecruiting creates the stage that keeps only actively recruiting postings.
func NewRecruiting() Filter {
	return &recruitingFilter{}
}

func (f *recruitingFilter) Name() string { return "recruiting" }

func (f *recruitingFilter) Reason() string { return "募集中のサロンがありません。" }

func (f *recruitingFilter) Apply(p *salon.Postings) Step {
	initial := p.Len()
	dropped := p.Retain(func(posting *salon.Posting) bool {
		return posting.Status == salon.StatusRecruiting
	})
	return Step{Initial: initial, Dropped: dropped, Left: p.Len()}
}

type roleFilter struct {
	role string
}

// NewRole creates the stage that keeps postings accepting the candidate's role.
func NewRole(role string) Filter {
	return &roleFilter{role: role}
}

func (f *roleFilter) Name() string { return "role" }

func (f *roleFilter) Reason() string { return "役職に合うサロンがありません。" }

func (f *roleFilter) Apply(p *salon.Postings) Step {
	initial := p.Len()
	dropped := p.Retain(func(posting *salon.Posting) bool {
		return posting.AcceptsRole(f.role)
	})
	return Step{Initial: initial, Dropped: dropped, Left: p.Len()}
}

type licenseFilter struct {
	held bool
}

// NewLicense creates the license stage. Licensed candidates match postings
// that require the license; unlicensed candidates match postings marked
// either required or not-yet-required, excluding any other value.
func NewLicense(held bool) Filter {
	return &licenseFilter{held: held}
}

func (f *licenseFilter) Name() string { return "license" }

func (f *licenseFilter) Reason() string { return "免許条件に合うサロンがありません。" }

func (f *licenseFilter) Apply(p *salon.Postings) Step {
	initial := p.Len()
	dropped := p.Retain(func(posting *salon.Posting) bool {
		if f.held {
			return posting.License == salon.LicenseRequired
		}
		return posting.License == salon.LicenseRequired || posting.License == salon.LicenseNotRequired
	})
	return Step{Initial: initial, Dropped: dropped, Left: p.Len()}
}

type genderFilter struct {
	gender string
}

// NewGender creates the stage matching the posting's target gender. An empty
// or no-preference target means no restriction.
func NewGender(gender string) Filter {
	return &genderFilter{gender: gender}
}

func (f *genderFilter) Name() string { return "gender" }

func (f *genderFilter) Reason() string { return "性別条件に合うサロンがありません。" }

func (f *genderFilter) Apply(p *salon.Postings) Step {
	initial := p.Len()
	dropped := p.Retain(func(posting *salon.Posting) bool {
		target := strings.TrimSpace(posting.TargetGender)
		return target == "" || target == salon.NoPreference || target == f.gender
	})
	return Step{Initial: initial, Dropped: dropped, Left: p.Len()}
}

type ageBandFilter struct {
	band string
}

// NewAgeBand creates the stage matching the posting's target age bands. The
// check is a plain substring test on the stored string, so compound values
// like "20代,30代" match either band and an empty derived band matches every
// target.
func NewAgeBand(band string) Filter {
	return &ageBandFilter{band: band}
}

func (f *ageBandFilter) Name() string { return "age_band" }

func (f *ageBandFilter) Reason() string { return "年齢条件に合うサロンがありません。" }

func (f *ageBandFilter) Apply(p *salon.Postings) Step {
	initial := p.Len()
	dropped := p.Retain(func(posting *salon.Posting) bool {
		target := strings.TrimSpace(posting.TargetAge)
		if target == "" || target == salon.NoPreference {
			return true
		}
		return strings.Contains(target, f.band)
	})
	return Step{Initial: initial, Dropped: dropped, Left: p.Len()}
}

type offeredHistoryFilter struct {
	offered map[string]struct{}
}

// NewOfferedHistory creates the stage that removes postings already offered
// to the candidate. Posting ids are compared as strings.
func NewOfferedHistory(postingIDs []string) Filter {
	offered := make(map[string]struct{}, len(postingIDs))
	for _, id := range postingIDs {
		offered[id] = struct{}{}
	}
	return &offeredHistoryFilter{offered: offered}
}

func (f *offeredHistoryFilter) Name() string { return "offered_history" }

func (f *offeredHistoryFilter) Reason() string {
	return "ご案内済みのサロンを除くと対象がありません。"
}

func (f *offeredHistoryFilter) Apply(p *salon.Postings) Step {
	initial := p.Len()
	dropped := p.Retain(func(posting *salon.Posting) bool {
		_, seen := f.offered[posting.ID]
		return !seen
	})
	return Step{Initial: initial, Dropped: dropped, Left: p.Len()}
}
