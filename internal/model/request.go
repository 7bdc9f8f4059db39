package model

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	FullName        string `json:"full_name"`
	Country         string `json:"country"`
	Role            string `json:"role"`
	InstitutionType string `json:"institution_type"`
}
