package matching

import (
	"testing"

	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// Shibuya station.
var testOrigin = Origin{Latitude: 35.658034, Longitude: 139.701636}

func basePosting(id string) *salon.Posting {
	return &salon.Posting{
		ID:        id,
		Status:    salon.StatusRecruiting,
		Roles:     "スタイリスト,アシスタント",
		License:   salon.LicenseRequired,
		Latitude:  35.658034,
		Longitude: 139.701636,
	}
}

func baseUser() *salon.UserWishes {
	return &salon.UserWishes{
		UserID:  "U1",
		Role:    "スタイリスト",
		Gender:  "女性",
		License: salon.LicenseHeld,
		AgeBand: "20代",
	}
}

func runPipeline(t *testing.T, user *salon.UserWishes, history []*salon.OfferHistoryEntry, postings ...*salon.Posting) (*salon.Postings, string) {
	t.Helper()
	pool := &salon.Postings{Items: postings}
	return ForUser(user, testOrigin, history, zap.NewNop()).Run(pool)
}

func TestDistanceStageDropsFarPostings(t *testing.T) {
	near := basePosting("near")
	far := basePosting("far")
	// Utsunomiya, about 100 km away.
	far.Latitude, far.Longitude = 36.559, 139.898

	left, reason := runPipeline(t, baseUser(), nil, near, far)
	if reason != "" {
		t.Fatalf("unexpected empty result: %s", reason)
	}
	if left.Len() != 1 || left.Items[0].ID != "near" {
		t.Fatalf("expected only the near posting, got %v", left.IDs())
	}
	if left.Items[0].Distance <= 0 {
		t.Fatal("expected the surviving posting to be annotated with its distance")
	}
}

func TestDistanceStageReasonWhenAllFar(t *testing.T) {
	far := basePosting("far")
	far.Latitude, far.Longitude = 36.559, 139.898

	_, reason := runPipeline(t, baseUser(), nil, far)
	if reason != "希望勤務地の25km以内に条件に合うサロンが見つかりませんでした。" {
		t.Fatalf("unexpected reason: %s", reason)
	}
}

func TestEmptyInputReportsDistanceReason(t *testing.T) {
	_, reason := runPipeline(t, baseUser(), nil)
	if reason != "希望勤務地の25km以内に条件に合うサロンが見つかりませんでした。" {
		t.Fatalf("unexpected reason for empty input: %s", reason)
	}
}

func TestRecruitingStage(t *testing.T) {
	closed := basePosting("closed")
	closed.Status = "募集終了"

	_, reason := runPipeline(t, baseUser(), nil, closed)
	if reason != "募集中のサロンがありません。" {
		t.Fatalf("unexpected reason: %s", reason)
	}
}

func TestRoleStage(t *testing.T) {
	assistantOnly := basePosting("assistant-only")
	assistantOnly.Roles = "アシスタント"

	_, reason := runPipeline(t, baseUser(), nil, assistantOnly)
	if reason != "役職に合うサロンがありません。" {
		t.Fatalf("unexpected reason: %s", reason)
	}
}

func TestLicenseStageForHeldLicense(t *testing.T) {
	notRequired := basePosting("not-required")
	notRequired.License = salon.LicenseNotRequired

	_, reason := runPipeline(t, baseUser(), nil, notRequired)
	if reason != "免許条件に合うサロンがありません。" {
		t.Fatalf("unexpected reason: %s", reason)
	}
}

func TestLicenseStageForUnlicensedCandidate(t *testing.T) {
	user := baseUser()
	user.License = ""

	required := basePosting("required")
	notRequired := basePosting("not-required")
	notRequired.License = salon.LicenseNotRequired
	other := basePosting("other")
	other.License = "応相談"

	left, reason := runPipeline(t, user, nil, required, notRequired, other)
	if reason != "" {
		t.Fatalf("unexpected empty result: %s", reason)
	}
	if left.Len() != 2 {
		t.Fatalf("expected required and not-required to survive, got %v", left.IDs())
	}
}

func TestGenderStage(t *testing.T) {
	menOnly := basePosting("men-only")
	menOnly.TargetGender = "男性"

	_, reason := runPipeline(t, baseUser(), nil, menOnly)
	if reason != "性別条件に合うサロンがありません。" {
		t.Fatalf("unexpected reason: %s", reason)
	}

	noPreference := basePosting("no-preference")
	noPreference.TargetGender = salon.NoPreference

	left, reason := runPipeline(t, baseUser(), nil, noPreference)
	if reason != "" || left.Len() != 1 {
		t.Fatalf("expected no-preference posting to survive, got %v (%s)", left.IDs(), reason)
	}
}

func TestAgeBandStageMatchesCompoundValues(t *testing.T) {
	compound := basePosting("compound")
	compound.TargetAge = "20代,30代"

	left, reason := runPipeline(t, baseUser(), nil, compound)
	if reason != "" || left.Len() != 1 {
		t.Fatalf("expected compound target age to match, got %v (%s)", left.IDs(), reason)
	}

	mismatch := basePosting("mismatch")
	mismatch.TargetAge = "40代"

	_, reason = runPipeline(t, baseUser(), nil, mismatch)
	if reason != "年齢条件に合うサロンがありません。" {
		t.Fatalf("unexpected reason: %s", reason)
	}
}

func TestAgeBandStageRetainsUserWithoutBand(t *testing.T) {
	// An unparsable birthdate leaves the band empty; such users match any
	// age-restricted posting.
	user := baseUser()
	user.AgeBand = ""

	restricted := basePosting("restricted")
	restricted.TargetAge = "20代,30代"

	left, reason := runPipeline(t, user, nil, restricted)
	if reason != "" || left.Len() != 1 {
		t.Fatalf("expected empty band to match restricted posting, got %v (%s)", left.IDs(), reason)
	}
}

func TestOfferedHistoryStage(t *testing.T) {
	offered := basePosting("offered")
	fresh := basePosting("fresh")
	history := []*salon.OfferHistoryEntry{{UserID: "U1", PostingID: "offered"}}

	left, reason := runPipeline(t, baseUser(), history, offered, fresh)
	if reason != "" {
		t.Fatalf("unexpected empty result: %s", reason)
	}
	if left.Len() != 1 || left.Items[0].ID != "fresh" {
		t.Fatalf("expected only the fresh posting, got %v", left.IDs())
	}

	_, reason = runPipeline(t, baseUser(), history, basePosting("offered"))
	if reason != "ご案内済みのサロンを除くと対象がありません。" {
		t.Fatalf("unexpected reason: %s", reason)
	}
}
