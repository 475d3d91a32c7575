package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

type MoverRepository struct {
	db *sql.DB
}

func NewMoverRepository(db *sql.DB) *MoverRepository {
	return &MoverRepository{db: db}
}

const moverColumns = `id, user_id, company_name, siret, email, phone, manager_firstname, manager_lastname, address, postal_code, city, created_at`

func (r *MoverRepository) GetByID(ctx context.Context, id string) (*domain.Mover, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+moverColumns+`
FROM movers
WHERE id = $1
`, id)

	mover, err := scanMover(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrMoverNotFound, "get mover", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan mover: %w", err)
	}

	trucks, err := r.listTrucks(ctx, id)
	if err != nil {
		return nil, err
	}
	mover.Trucks = trucks
	return &mover, nil
}

// FindByField returns movers other than excludeID sharing the given value.
// SIRETs are compared without spaces and emails case-insensitively.
func (r *MoverRepository) FindByField(ctx context.Context, field domain.MoverField, value, excludeID string) ([]domain.Mover, error) {
	var predicate string
	switch field {
	case domain.MoverFieldSIRET:
		predicate = `replace(siret, ' ', '') = $1`
	case domain.MoverFieldEmail:
		predicate = `lower(email) = lower($1)`
	case domain.MoverFieldPhone:
		predicate = `phone = $1`
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "find movers", fmt.Errorf("unsupported field %q", field))
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+moverColumns+`
FROM movers
WHERE `+predicate+` AND id <> $2
ORDER BY created_at
`, value, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find movers by %s: %w", field, err)
	}
	defer rows.Close()

	out := make([]domain.Mover, 0)
	for rows.Next() {
		m, err := scanMover(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mover: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movers: %w", err)
	}
	return out, nil
}

func (r *MoverRepository) listTrucks(ctx context.Context, moverID string) ([]domain.Truck, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, mover_id, license_plate, registration_card_path
FROM trucks
WHERE mover_id = $1
ORDER BY id
`, moverID)
	if err != nil {
		return nil, fmt.Errorf("list trucks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Truck, 0)
	for rows.Next() {
		var t domain.Truck
		if err := rows.Scan(&t.ID, &t.MoverID, &t.LicensePlate, &t.RegistrationDocumentPath); err != nil {
			return nil, fmt.Errorf("scan truck: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trucks: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMover(row rowScanner) (domain.Mover, error) {
	var m domain.Mover
	err := row.Scan(
		&m.ID, &m.UserID, &m.CompanyName, &m.SIRET, &m.Email, &m.Phone,
		&m.ManagerFirstName, &m.ManagerLastName, &m.Address, &m.PostalCode, &m.City, &m.CreatedAt,
	)
	return m, err
}
