package modules

import (
	"time"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/schema"
)

const (
	UserActive    = "active"
	UserInactive  = "inactive"
	UserSuspended = "suspended"
)

var (
	UserStatuses = []string{UserActive, UserInactive, UserSuspended}
	UserRoles    = []string{"admin", "manager", "staff", "viewer"}
)

type Role struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type User struct {
	record.Meta
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Status     string     `json:"status"`
	Role       Role       `json:"role"`
	Department string     `json:"department,omitempty"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

func UsersConfig() *query.Config {
	return &query.Config{
		Name:             "users",
		Title:            "Users",
		SearchableFields: []string{"name", "email", "role.name", "department"},
		FilterableFields: []query.FilterField{
			{Field: "status", Values: UserStatuses},
			{Field: "role.name", Values: UserRoles},
		},
		SortableFields: []string{"name", "email", "status", "createdAt", "updatedAt", "lastLogin"},
		DefaultSort:    query.Sort{Field: "createdAt", Order: query.SortDesc},
		DateFields:     []string{"createdAt", "updatedAt", "lastLogin"},
		Schema: schema.New("User", map[string]*schema.Property{
			"name":       schema.String(),
			"email":      schema.Email(),
			"phone":      schema.OptionalString(),
			"status":     schema.Enum(UserStatuses...),
			"role":       schema.Object(map[string]*schema.Property{"id": schema.OptionalString(), "name": schema.Enum(UserRoles...)}, "name"),
			"department": schema.OptionalString(),
			"lastLogin":  schema.DateTime(),
		}, "name", "email", "status", "role"),
	}
}

var UserFields = withMeta(query.Fields[User]{
	"name":       func(u User) any { return u.Name },
	"email":      func(u User) any { return u.Email },
	"status":     func(u User) any { return u.Status },
	"role.name":  func(u User) any { return u.Role.Name },
	"department": func(u User) any { return u.Department },
	"lastLogin":  func(u User) any { return query.TimePtr(u.LastLogin) },
})

func ActiveUsers(users []User) []User {
	return filter(users, func(u User) bool { return u.Status == UserActive })
}

// UsersByRole counts users per role name.
func UsersByRole(users []User) map[string]int {
	out := make(map[string]int)
	for _, u := range users {
		out[u.Role.Name]++
	}
	return out
}

type UserSummary struct {
	Total     int            `json:"total"`
	Active    int            `json:"active"`
	Inactive  int            `json:"inactive"`
	Suspended int            `json:"suspended"`
	ByRole    map[string]int `json:"byRole"`
}

func UserStats(users []User) UserSummary {
	s := UserSummary{Total: len(users), ByRole: UsersByRole(users)}
	for _, u := range users {
		switch u.Status {
		case UserActive:
			s.Active++
		case UserInactive:
			s.Inactive++
		case UserSuspended:
			s.Suspended++
		}
	}
	return s
}
