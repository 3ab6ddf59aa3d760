package automation

import (
	"strings"

	"github.com/praxisflow/praxisflow/pkg/models"
)

// Matches reports whether a stage event satisfies an automation's trigger
// configuration. A non-match is not an error, the automation is simply not a
// candidate for this event.
func Matches(a *models.Automation, event models.StageEvent) bool {
	if !a.Active || a.TriggerType != models.TriggerDealStageChanged {
		return false
	}

	if !stageMatches(a.Config, event) {
		return false
	}

	return categoryMatches(a.Config.Category, event.Category)
}

func stageMatches(config models.AutomationConfig, event models.StageEvent) bool {
	toMatches := config.ToStageID == "" || config.ToStageID == event.ToStageID

	if event.IsCreation() {
		if config.TriggerOnCreation {
			// FromStageID is ignored for creation-aware automations.
			return toMatches
		}

		// An automation naming a specific source stage can never match a
		// creation event.
		return toMatches && config.FromStageID == ""
	}

	fromMatches := config.FromStageID == "" || config.FromStageID == event.FromStage()

	return toMatches && fromMatches
}

// categoryMatches compares case-insensitively; absence of either side is not
// a mismatch.
func categoryMatches(configured, actual string) bool {
	if configured == "" || actual == "" {
		return true
	}

	return strings.EqualFold(configured, actual)
}
