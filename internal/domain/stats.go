package domain

// ActivityTier buckets the number of active tickets for display.
type ActivityTier string

const (
	ActivityTierHigh   ActivityTier = "high"
	ActivityTierMedium ActivityTier = "medium"
	ActivityTierLow    ActivityTier = "low"
	ActivityTierInfo   ActivityTier = "info"
)

// ActiveTicketStats is the badge shown next to the active tickets link.
type ActiveTicketStats struct {
	Count int
	Tier  ActivityTier
}

// BadgeClass returns the CSS class used to render the badge.
func (s ActiveTicketStats) BadgeClass() string {
	return "badge-active-tickets-" + string(s.Tier)
}

// TierForActiveCount maps an active ticket count to its severity tier.
func TierForActiveCount(count int) ActivityTier {
	switch {
	case count > 10:
		return ActivityTierHigh
	case count > 5:
		return ActivityTierMedium
	case count > 0:
		return ActivityTierLow
	default:
		return ActivityTierInfo
	}
}

// NewActiveTicketStats builds the badge for count.
func NewActiveTicketStats(count int) ActiveTicketStats {
	return ActiveTicketStats{Count: count, Tier: TierForActiveCount(count)}
}
