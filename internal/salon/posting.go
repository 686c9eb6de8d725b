package salon

import (
	"math"
	"strings"
)

// Values stored in the posting master table. The table is maintained by the
// operations team in Japanese, so the literals here must match the stored
// strings exactly.
const (
	StatusRecruiting = "募集中"

	LicenseRequired    = "取得"
	LicenseNotRequired = "未取得"

	NoPreference = "指定なし"

	RoleAssistant = "アシスタント"
	RoleStylist   = "スタイリスト"
)

// Posting is one salon's open job listing. Owned by the row store and
// read-only for the matching pipeline; Distance is annotated in-process.
type Posting struct {
	ID           string  `json:"store_id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	ImageURL     string  `json:"image_url,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Status       string  `json:"status"`
	Roles        string  `json:"roles"`
	License      string  `json:"license"`
	TargetGender string  `json:"target_gender,omitempty"`
	TargetAge    string  `json:"target_age,omitempty"`
	RecruitType  string  `json:"recruit_type,omitempty"`
	Perks        string  `json:"perks,omitempty"`
	Features     string  `json:"features,omitempty"`

	// Distance from the user's resolved origin in kilometers. Set by the
	// distance filter stage, never persisted.
	Distance float64 `json:"distance_km,omitempty" gorm:"-"`
}

// RoleList splits the comma-separated accepted roles, trimming whitespace.
func (p *Posting) RoleList() []string {
	parts := strings.Split(p.Roles, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}

// AcceptsRole reports whether the posting's accepted-role set contains role.
func (p *Posting) AcceptsRole(role string) bool {
	for _, r := range p.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayRole is the single role label shown on the offer card.
func (p *Posting) DisplayRole() string {
	if strings.Contains(p.Roles, RoleAssistant) {
		return RoleAssistant
	}
	return RoleStylist
}

type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	return len(p.Items)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

func (p *Postings) IDs() []string {
	ids := make([]string, 0, len(p.Items))
	for _, posting := range p.Items {
		ids = append(ids, posting.ID)
	}
	return ids
}

// Retain keeps only postings for which keep returns true and reports how many
// were dropped.
func (p *Postings) Retain(keep func(*Posting) bool) int {
	kept := make([]*Posting, 0, len(p.Items))
	for _, posting := range p.Items {
		if keep(posting) {
			kept = append(kept, posting)
		}
	}
	dropped := len(p.Items) - len(kept)
	p.Items = kept
	return dropped
}

// Remove deletes the posting with the given id, preserving order.
func (p *Postings) Remove(id string) {
	for idx, posting := range p.Items {
		if posting.ID == id {
			p.Items = append(p.Items[:idx], p.Items[idx+1:]...)
			return
		}
	}
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two coordinates.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
