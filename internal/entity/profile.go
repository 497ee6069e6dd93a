package entity

// Profile is the singleton user profile.
type Profile struct {
	Name            string   `json:"name,omitempty"`
	Age             int      `json:"age"`
	Gender          string   `json:"gender"`
	KnownConditions []string `json:"knownConditions"`
}
