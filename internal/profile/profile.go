package profile

// Profile is what other players see for a user. A user who never updated
// their profile is represented by the bare id.
type Profile struct {
	ID            string `json:"id" gorm:"primaryKey"`
	DisplayName   string `json:"display_name,omitempty"`
	ImageFilename string `json:"image_filename,omitempty"`
}

// Bare is the default profile for a user with no stored one.
func Bare(id string) Profile {
	return Profile{ID: id}
}

// Store resolves and persists profiles. Get never fails: unknown users get
// a bare profile.
type Store interface {
	Get(id string) Profile
	Put(p Profile) error
}
