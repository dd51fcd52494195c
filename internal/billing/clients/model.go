package clients

import "time"

// Client is a document recipient. Either CompanyName or the person name is
// used as the display name on rendered documents.
type Client struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	CompanyName  string    `json:"company_name"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Website      string    `json:"website"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	PostalCode   string    `json:"postal_code"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	TaxID        string    `json:"tax_id"`
	Notes        string    `json:"notes"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName mirrors how documents name the recipient.
func (c Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
