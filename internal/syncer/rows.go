package syncer

import "github.com/gdg-garage/msp-registration/internal/models"

// Row is the remote table schema. Only these columns are ever sent.
type Row struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        *string  `json:"phone"`
	Organization string   `json:"organization"`
	Role         string   `json:"role"`
	Gender       string   `json:"gender"`
	Origin       string   `json:"origin"`
	Experience   string   `json:"experience"`
	Interests    []string `json:"interests"`
	Timestamp    string   `json:"timestamp"`
	SyncedAt     string   `json:"synced_at,omitempty"`
}

// ToRow maps a registration onto the remote schema. An empty phone is sent as null.
func ToRow(r models.Registration) Row {
	var phone *string
	if r.Phone != nil && *r.Phone != "" {
		p := *r.Phone
		phone = &p
	}
	return Row{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        phone,
		Organization: r.Organization,
		Role:         r.Role,
		Gender:       r.Gender,
		Origin:       r.Origin,
		Experience:   r.Experience,
		Interests:    r.Interests,
		Timestamp:    r.Timestamp,
	}
}
