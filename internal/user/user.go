package user

import (
	"regexp"
	"strings"
	"time"

	"github.com/tabng/tab-backend/internal/address"
	"github.com/tabng/tab-backend/internal/auth"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

type User struct {
	ID         string            `json:"id"`
	Name       *string           `json:"name"`
	Email      string            `json:"email"`
	Password   string            `json:"password,omitempty"`
	Image      *string           `json:"image"`
	Role       auth.Role         `json:"role"`
	OrderCount *int              `json:"orderCount,omitempty"`
	Addresses  []address.Address `json:"addresses,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type ListFilter struct {
	Limit  int
	Cursor string
	Search string
	Role   *auth.Role
}

type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in SignUpInput) Validate() map[string]string {
	errs := map[string]string{}
	checkEmail(errs, in.Email)
	checkPassword(errs, "password", in.Password)
	return errs
}

type ProfileInput struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (in PasswordInput) Validate() map[string]string {
	errs := map[string]string{}
	if in.CurrentPassword == "" {
		errs["currentPassword"] = "Current password is required"
	}
	checkPassword(errs, "newPassword", in.NewPassword)
	return errs
}

// CreateInput is the admin form for new accounts.
type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (in CreateInput) Validate() map[string]string {
	errs := map[string]string{}
	checkEmail(errs, in.Email)
	checkPassword(errs, "password", in.Password)
	if in.Role != "" {
		if _, err := auth.ParseRole(in.Role); err != nil {
			errs["role"] = "Role must be USER or ADMIN"
		}
	}
	return errs
}

type UpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Image    *string `json:"image"`
}

func (in UpdateInput) Validate() map[string]string {
	errs := map[string]string{}
	if in.Email != nil {
		checkEmail(errs, *in.Email)
	}
	if in.Password != nil {
		checkPassword(errs, "password", *in.Password)
	}
	if in.Role != nil {
		if _, err := auth.ParseRole(*in.Role); err != nil {
			errs["role"] = "Role must be USER or ADMIN"
		}
	}
	return errs
}

func checkEmail(errs map[string]string, email string) {
	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Please enter a valid email address"
	}
}

func checkPassword(errs map[string]string, field, pw string) {
	if len(pw) < minPasswordLength {
		errs[field] = "Password must be at least 8 characters"
	}
}

func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
