package domain

import (
	"strings"
	"time"
)

type Mover struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CompanyName      string    `json:"company_name"`
	SIRET            string    `json:"siret"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	ManagerFirstName string    `json:"manager_firstname"`
	ManagerLastName  string    `json:"manager_lastname"`
	Address          string    `json:"address"`
	PostalCode       string    `json:"postal_code"`
	City             string    `json:"city"`
	Trucks           []Truck   `json:"trucks"`
	CreatedAt        time.Time `json:"created_at"`
}

// ManagerName joins first and last name, empty when neither is known.
func (m Mover) ManagerName() string {
	return strings.TrimSpace(strings.TrimSpace(m.ManagerFirstName) + " " + strings.TrimSpace(m.ManagerLastName))
}

func (m Mover) Reference() ReferenceValues {
	return ReferenceValues{
		CompanyName: m.CompanyName,
		SIRET:       m.SIRET,
		ManagerName: m.ManagerName(),
		Address:     strings.TrimSpace(strings.Join([]string{m.Address, m.PostalCode, m.City}, " ")),
	}
}

type Truck struct {
	ID                       string `json:"id"`
	MoverID                  string `json:"mover_id"`
	LicensePlate             string `json:"license_plate"`
	RegistrationDocumentPath string `json:"registration_card_path,omitempty"`
}

// MoverField names a mover column that must be unique across movers.
type MoverField string

const (
	MoverFieldSIRET MoverField = "siret"
	MoverFieldEmail MoverField = "email"
	MoverFieldPhone MoverField = "phone"
)
