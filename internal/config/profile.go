package config

// Profile is a saved search: a named query and location with an optional
// page count. Profiles let a config file hold several searches and pick
// one with --profile.
type Profile struct {
	// Query is the search term.
	Query string `yaml:"search_query,omitempty"`

	// Location is the free-text location.
	Location string `yaml:"location,omitempty"`

	// NumPages overrides the global page count. Zero keeps the global value.
	NumPages int `yaml:"num_pages,omitempty"`
}

// ApplyProfile copies the named profile over the search fields.
// Empty profile fields leave the current values unchanged.
func (c *Config) ApplyProfile(name string) error {
	p, ok := c.Profiles[name]
	if !ok {
		return &ProfileError{Name: name}
	}
	if p.Query != "" {
		c.Query = p.Query
	}
	if p.Location != "" {
		c.Location = p.Location
	}
	if p.NumPages != 0 {
		c.NumPages = p.NumPages
	}
	return nil
}

// ProfileError reports a profile name missing from the configuration.
type ProfileError struct {
	Name string
}

// Error implements error.
func (e *ProfileError) Error() string {
	return ErrUnknownProfile.Error() + ": " + e.Name
}

// Unwrap returns ErrUnknownProfile.
func (e *ProfileError) Unwrap() error {
	return ErrUnknownProfile
}
