package rank

import "github.com/anivartee/anivartee/model"

var (
	userFlagWeights    = []float64{0.5, 0.8, 1.3, 2.0}
	checkerFlagWeights = []float64{1.0, 1.2, 1.5, 2.0, 3.5}
)

const defaultFlagWeight = 0.5

// FlagWeight returns the influence one flag carries in the weighted score,
// derived from the flagger's role and rank level at flag time. Levels outside
// the table fall back to the role's lowest weight.
func FlagWeight(role model.UserRole, rankLevel int) float64 {
	switch role {
	case model.RoleUser:
		if rankLevel >= 0 && rankLevel < len(userFlagWeights) {
			return userFlagWeights[rankLevel]
		}
		return userFlagWeights[0]
	case model.RoleFactChecker:
		if rankLevel >= 0 && rankLevel < len(checkerFlagWeights) {
			return checkerFlagWeights[rankLevel]
		}
		return checkerFlagWeights[0]
	default:
		return defaultFlagWeight
	}
}
