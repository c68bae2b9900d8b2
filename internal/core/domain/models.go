package domain

import "time"

// Roles recognised by the API.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Contact inquiry states.
const (
	ContactUnread  = "unread"
	ContactRead    = "read"
	ContactReplied = "replied"
)

type SocialLinks struct {
	GitHub   string `json:"github"`
	LinkedIn string `json:"linkedin"`
	Twitter  string `json:"twitter"`
	Website  string `json:"website"`
}

// User is the public representation of an account. It never carries the
// password hash.
type User struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Role              string      `json:"role,omitempty"`
	Phone             string      `json:"phone,omitempty"`
	Location          string      `json:"location,omitempty"`
	YearsOfExperience int         `json:"yearsOfExperience"`
	ProfileImage      string      `json:"profileImage"`
	Bio               string      `json:"bio,omitempty"`
	SocialLinks       SocialLinks `json:"socialLinks"`
	Theme             string      `json:"theme,omitempty"`
	CreatedAt         time.Time   `json:"createdAt,omitzero"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PublicProfile is the portfolio owner's profile as shown to anonymous visitors.
type PublicProfile struct {
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone"`
	Location          string      `json:"location"`
	YearsOfExperience int         `json:"yearsOfExperience"`
	ProfileImage      string      `json:"profileImage"`
	Bio               string      `json:"bio"`
	SocialLinks       SocialLinks `json:"socialLinks"`
}

type Project struct {
	ID           string    `json:"_id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	Technologies []string  `json:"technologies"`
	GitHub       string    `json:"github"`
	LiveDemo     string    `json:"liveDemo"`
	Featured     bool      `json:"featured"`
	Order        int       `json:"order"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
}

type Skill struct {
	ID        string    `json:"_id,omitempty"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Category  string    `json:"category"`
	Level     int       `json:"level"`
	Order     int       `json:"order"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Contact is an inquiry submitted through the public contact form.
type Contact struct {
	ID        string    `json:"_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register. Token is the bearer
// credential for every protected call.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

// ProfileUpdate is the body of PATCH /auth/updateprofile. Empty strings and
// nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	Name              string       `json:"name,omitempty"`
	Email             string       `json:"email,omitempty"`
	Phone             string       `json:"phone,omitempty"`
	Location          string       `json:"location,omitempty"`
	YearsOfExperience *int         `json:"yearsOfExperience,omitempty"`
	Bio               string       `json:"bio,omitempty"`
	SocialLinks       *SocialLinks `json:"socialLinks,omitempty"`
	Theme             string       `json:"theme,omitempty"`
	ProfileImage      string       `json:"profileImage,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ContactStatusUpdate struct {
	Status string `json:"status"`
}

// ListQuery carries the list filters shared by the collection endpoints.
// Filter keys are JSON field names; repositories ignore keys they do not index.
type ListQuery struct {
	Filter map[string]string
	Sort   []SortField
	Page   int
	Limit  int
}

type SortField struct {
	Field string
	Desc  bool
}

// Offset returns the number of rows to skip for the requested page.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}
