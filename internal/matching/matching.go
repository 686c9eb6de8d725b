// Package matching narrows the full posting set down to postings eligible
// for one candidate. Stages run in a fixed order and the pipeline stops the
// moment a stage empties the set, reporting that stage's reason.
package matching

import (
	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// Filter represents a single filtering stage applied to postings.
type Filter interface {
	Name() string
	// Reason is the human-readable explanation reported when this stage
	// empties the posting set.
	Reason() string
	Apply(p *salon.Postings) Step
}

// Step describes the result of executing a filtering stage.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Pipeline executes filters sequentially with step accounting.
type Pipeline struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, logger *zap.Logger) *Pipeline {
	return &Pipeline{steps: steps, logger: logger}
}

// Origin is the candidate's resolved desired-area coordinates.
type Origin struct {
	Latitude  float64
	Longitude float64
}

// ForUser builds the standard stage order for one candidate.
func ForUser(user *salon.UserWishes, origin Origin, history []*salon.OfferHistoryEntry, logger *zap.Logger) *Pipeline {
	steps := []Filter{
		NewDistance(origin, MaxDistanceKm),
		NewRecruiting(),
		NewRole(user.Role),
		NewLicense(user.HasLicense()),
		NewGender(user.Gender),
		NewAgeBand(user.AgeBand),
		NewOfferedHistory(salon.OfferedPostingIDs(history)),
	}
	return New(steps, logger)
}

// Run applies the stages in order. It returns the surviving postings and an
// empty reason on success, or the emptying stage's reason when no posting
// survives. An empty input set reports the first stage's reason.
func (pl *Pipeline) Run(p *salon.Postings) (*salon.Postings, string) {
	if p.Len() == 0 && len(pl.steps) > 0 {
		return p, pl.steps[0].Reason()
	}

	for _, step := range pl.steps {
		info := step.Apply(p)

		pl.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		if info.Left == 0 {
			return p, step.Reason()
		}
	}

	return p, ""
}
