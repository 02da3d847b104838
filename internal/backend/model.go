package backend

// ActivityType is the category of an itinerary activity. The backend treats
// it as a free string, so values outside the known set can appear in stale
// or foreign data and must be handled by callers.
type ActivityType string

// Known activity categories.
const (
	ActivityCompanyVisit ActivityType = "CompanyVisit"
	ActivityHotel        ActivityType = "Hotel"
	ActivityRestaurant   ActivityType = "Restaurant"
	ActivityTravel       ActivityType = "Travel"
	ActivityDiscussion   ActivityType = "Discussion"
)

// ActivityTypes lists the known categories in selector order.
var ActivityTypes = []ActivityType{
	ActivityCompanyVisit,
	ActivityDiscussion,
	ActivityHotel,
	ActivityRestaurant,
	ActivityTravel,
}

// Known reports whether t is one of the closed set of categories.
func (t ActivityType) Known() bool {
	for _, k := range ActivityTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Company is a company that tours can visit.
type Company struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CompanyInput is the body of a company create or full update.
type CompanyInput struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// TourStatus is the lifecycle state of a tour.
type TourStatus string

const (
	TourDraft     TourStatus = "Draft"
	TourPending   TourStatus = "Pending"
	TourCompleted TourStatus = "Completed"
)

// Tour is a benchmarking tour. StartDate and EndDate are either plain
// YYYY-MM-DD dates or UTC instants depending on the backend version.
type Tour struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	StartDate         string     `json:"start_date"`
	EndDate           string     `json:"end_date"`
	Status            TourStatus `json:"status"`
	SurveyURL         string     `json:"survey_url,omitempty"`
	ThemePrimaryColor string     `json:"theme_primary_color,omitempty"`
	ThemeLogoURL      string     `json:"theme_logo_url,omitempty"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

// TourInput is the body of a tour create or full update. StartDate and
// EndDate are UTC instants of JST midnight.
type TourInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Status      TourStatus `json:"status"`
	SurveyURL   string     `json:"survey_url,omitempty"`
}

// Activity is a scheduled itinerary item as returned by the backend.
// StartTime and EndTime are UTC RFC 3339 instants.
type Activity struct {
	ID               int64        `json:"id"`
	TourID           int64        `json:"tour_id"`
	CompanyID        *int64       `json:"company_id,omitempty"`
	CompanyName      string       `json:"company_name,omitempty"`
	Type             ActivityType `json:"type"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	StartTime        string       `json:"start_time"`
	EndTime          string       `json:"end_time"`
	LocationDetails  string       `json:"location_details,omitempty"`
	SurveyURL        string       `json:"survey_url,omitempty"`
	LinkedActivityID *int64       `json:"linked_activity_id,omitempty"`
	ImageURL         string       `json:"image_url,omitempty"`
	CreatedAt        string       `json:"created_at"`
	UpdatedAt        string       `json:"updated_at"`
	AverageRating    *float64     `json:"average_rating,omitempty"`
	TotalReviews     *int         `json:"total_reviews,omitempty"`
}

// User is a backend account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Roles known to the backend.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
	RoleGuide = "Guide"
)

// Participant is a user assigned to a tour.
type Participant struct {
	ID         int64  `json:"id"`
	TourID     int64  `json:"tour_id"`
	UserID     string `json:"user_id"`
	AssignedAt string `json:"assigned_at"`
	User       User   `json:"user"`
}

// AuthResponse is returned by login and account setup.
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetupAccountRequest completes a pre-provisioned account with its setup code.
type SetupAccountRequest struct {
	Email     string `json:"email"`
	SetupCode string `json:"setup_code"`
	Password  string `json:"password"`
}
