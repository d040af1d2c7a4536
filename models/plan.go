package models

// PlanTier holds the resource ceilings of a subscription tier.
// A nil limit means unlimited.
type PlanTier struct {
	MaxRestaurants *int
	MaxMenuItems   *int
}

// PlanLimits maps plan names to their resource ceilings. Billing and plan
// changes happen outside this service; the tier table itself is static.
var PlanLimits = map[string]PlanTier{
	"free":      {MaxRestaurants: intPtr(1), MaxMenuItems: intPtr(50)},
	"starter":   {MaxRestaurants: intPtr(3), MaxMenuItems: intPtr(200)},
	"pro":       {MaxRestaurants: intPtr(10), MaxMenuItems: intPtr(1000)},
	"unlimited": {},
}

// ValidPlan reports whether name is a known subscription tier.
func ValidPlan(name string) bool {
	_, ok := PlanLimits[name]
	return ok
}

func intPtr(v int) *int { return &v }
