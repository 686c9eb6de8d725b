package salon

import (
	"fmt"
	"time"
)

// User-side license value submitted through the profile form. Distinct from
// the posting-side LicenseRequired literal.
const LicenseHeld = "取得済み"

// UserWishes is a candidate's profile and preferences as submitted on
// registration. AgeBand is derived from Birthdate; the record is otherwise
// immutable during a matching run.
type UserWishes struct {
	UserID        string `json:"userId" mapstructure:"userId"`
	FullName      string `json:"full_name" mapstructure:"full_name"`
	Gender        string `json:"gender" mapstructure:"gender"`
	Birthdate     string `json:"birthdate" mapstructure:"birthdate"`
	PhoneNumber   string `json:"phone_number" mapstructure:"phone_number"`
	MBTI          string `json:"mbti" mapstructure:"mbti"`
	Role          string `json:"role" mapstructure:"role"`
	Prefecture    string `json:"area_prefecture" mapstructure:"area_prefecture"`
	DetailArea    string `json:"area_detail" mapstructure:"area_detail"`
	Satisfaction  string `json:"satisfaction" mapstructure:"satisfaction"`
	Perk          string `json:"perk" mapstructure:"perk"`
	CurrentStatus string `json:"current_status" mapstructure:"current_status"`
	Timing        string `json:"timing" mapstructure:"timing"`
	License       string `json:"license" mapstructure:"license"`

	// AgeBand is the derived decade band, e.g. "20代".
	AgeBand string `json:"age,omitempty" mapstructure:"age"`
}

// HasLicense reports whether the candidate already holds the license.
func (u *UserWishes) HasLicense() bool {
	return u.License == LicenseHeld
}

// DeriveAgeBand fills AgeBand from Birthdate (YYYY-MM-DD). An unparsable or
// empty birthdate leaves the band empty rather than failing registration.
func (u *UserWishes) DeriveAgeBand(now time.Time) {
	u.AgeBand = ""
	if u.Birthdate == "" {
		return
	}

	born, err := time.Parse("2006-01-02", u.Birthdate)
	if err != nil {
		return
	}

	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return
	}

	u.AgeBand = fmt.Sprintf("%d代", (age/10)*10)
}

// Questionnaire holds the pre-interview questionnaire answers.
type Questionnaire struct {
	Area              string `json:"q1_area"`
	JobChanges        string `json:"q2_job_changes"`
	CurrentEmployment string `json:"q3_current_employment"`
	ExperienceYears   string `json:"q4_experience_years"`
	DesiredEmployment string `json:"q5_desired_employment"`
	Priorities        string `json:"q6_priorities"`
	ImprovementPoint  string `json:"q7_improvement_point"`
	IdealBeautician   string `json:"q8_ideal_beautician"`
}
