package model

import "time"

type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	FullName         string    `json:"full_name,omitempty"`
	Country          string    `json:"country,omitempty"`
	Role             string    `json:"role,omitempty"`
	InstitutionType  string    `json:"institution_type,omitempty"`
	Disabled         bool      `json:"disabled"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Identity is the projection of a User that is safe to return to clients.
// It never carries the password hash.
type Identity struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name,omitempty"`
	Country          string    `json:"country,omitempty"`
	Role             string    `json:"role,omitempty"`
	InstitutionType  string    `json:"institution_type,omitempty"`
	Disabled         bool      `json:"disabled"`
	RegistrationDate time.Time `json:"registration_date"`
}

func (u User) Identity() Identity {
	return Identity{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
		Country:          u.Country,
		Role:             u.Role,
		InstitutionType:  u.InstitutionType,
		Disabled:         u.Disabled,
		RegistrationDate: u.RegistrationDate,
	}
}

type UserStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Disabled int `json:"disabled"`
}
