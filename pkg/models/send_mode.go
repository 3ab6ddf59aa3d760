package models

import "time"

// SendMode is the timing policy of an action.
type SendMode string

const (
	SendModeImmediate SendMode = "immediate"
	SendModeDelay     SendMode = "delay"
	SendModeRecurring SendMode = "recurring"
)

// MaxRecurringOccurrences caps how many occurrences a recurring action may
// produce, matching the delivery provider's scheduling window.
const MaxRecurringOccurrences = 30

// Schedule is the resolved timing configuration of one action.
type Schedule struct {
	Mode      SendMode
	DelayDays int
	EveryDays int
	Times     int
}

// ScheduleFromConfig reads the timing fields out of an action config map.
// Missing or unknown values fall back to immediate execution.
func ScheduleFromConfig(config map[string]any) Schedule {
	mode, _ := config["send_mode"].(string)

	schedule := Schedule{Mode: SendMode(mode)}

	switch schedule.Mode {
	case SendModeDelay:
		schedule.DelayDays = intConfig(config, "delay_days", 1)
	case SendModeRecurring:
		schedule.EveryDays = intConfig(config, "recurring_every_days", intConfig(config, "recurring_days", 1))
		schedule.Times = intConfig(config, "recurring_times", 1)
	default:
		schedule.Mode = SendModeImmediate
	}

	return schedule
}

// Occurrences computes the timestamps at which the action should run.
// Immediate yields [now], delay yields [now + DelayDays], recurring yields
// min(Times, MaxRecurringOccurrences) timestamps spaced EveryDays apart,
// starting at now.
func (s Schedule) Occurrences(now time.Time) []time.Time {
	switch s.Mode {
	case SendModeDelay:
		return []time.Time{now.AddDate(0, 0, s.DelayDays)}
	case SendModeRecurring:
		times := s.Times
		if times > MaxRecurringOccurrences {
			times = MaxRecurringOccurrences
		}

		if times < 1 {
			times = 1
		}

		occurrences := make([]time.Time, 0, times)
		for i := range times {
			occurrences = append(occurrences, now.AddDate(0, 0, i*s.EveryDays))
		}

		return occurrences
	default:
		return []time.Time{now}
	}
}

func intConfig(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
