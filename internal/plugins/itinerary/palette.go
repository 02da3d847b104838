package itinerary

import "github.com/tourbench/console/internal/backend"

// Appearance is how an activity category is drawn on the calendar. Icon
// names refer to the console's bundled icon sprite.
type Appearance struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// DefaultAppearance is used for categories outside the known set.
var DefaultAppearance = Appearance{Color: "#6b7280", Icon: "clock", Label: "Activity"}

var palette = map[backend.ActivityType]Appearance{
	backend.ActivityCompanyVisit: {Color: "#3b82f6", Icon: "building-2", Label: "Company Visit"},
	backend.ActivityHotel:        {Color: "#10b981", Icon: "hotel", Label: "Hotel"},
	backend.ActivityRestaurant:   {Color: "#f59e0b", Icon: "utensils", Label: "Restaurant"},
	backend.ActivityTravel:       {Color: "#8b5cf6", Icon: "car", Label: "Travel"},
	backend.ActivityDiscussion:   {Color: "#ec4899", Icon: "message-square", Label: "Discussion"},
}

// AppearanceOf returns the color and icon for t. It never fails: stale or
// foreign categories get DefaultAppearance.
func AppearanceOf(t backend.ActivityType) Appearance {
	if a, ok := palette[t]; ok {
		return a
	}
	return DefaultAppearance
}
