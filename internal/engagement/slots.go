// Package engagement turns historical post engagement into ranked publishing
// slots and picks the next publish time from them.
package engagement

// Slot is a (weekday, hour) bucket with the average engagement observed for
// posts published in that bucket. Weekday is 0-6 with Sunday 0, hour 0-23.
type Slot struct {
	Weekday       int     `json:"day"`
	Hour          int     `json:"hour"`
	AvgEngagement float64 `json:"averageEngagement"`
}

// MaxSlots is how many ranked slots are kept per user.
const MaxSlots = 5
