package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/db"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, client Client) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
}

const selectColumns = `
	id, company_id, company_name, first_name, last_name, email, phone, website,
	address_line1, address_line2, postal_code, city, country, tax_id, notes,
	is_active, created_at, updated_at`

var updatableColumns = []string{
	"company_name", "first_name", "last_name", "email", "phone", "website",
	"address_line1", "address_line2", "postal_code", "city", "country",
	"tax_id", "notes", "is_active",
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.db.QueryRow(ctx, "SELECT "+selectColumns+" FROM clients WHERE id = $1", id)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %d: %w", id, httpx.ErrNotFound)
	}
	return c, err
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.CompanyID > 0 {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", argPos))
		args = append(args, req.CompanyID)
		argPos++
	}
	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(company_name ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)",
			argPos, argPos, argPos, argPos))
		args = append(args, "%"+req.Params.Search+"%")
		argPos++
	}
	where := shared.WhereClause(conditions)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM clients %s
		ORDER BY COALESCE(NULLIF(company_name, ''), last_name), id
		LIMIT $%d OFFSET $%d`, selectColumns, where, argPos, argPos+1)
	args = append(args, req.Params.PerPage, req.Params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *c)
	}
	return clients, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (
			company_id, company_name, first_name, last_name, email, phone, website,
			address_line1, address_line2, postal_code, city, country, tax_id, notes,
			is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		c.CompanyID, c.CompanyName, c.FirstName, c.LastName, c.Email, c.Phone, c.Website,
		c.AddressLine1, c.AddressLine2, c.PostalCode, c.City, c.Country, c.TaxID, c.Notes,
		c.IsActive,
	).Scan(&id)
	if db.IsForeignKeyViolation(err) {
		return 0, httpx.FieldError("company_id", "does not exist")
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query, args := shared.UpdateStatement("clients", updatableColumns, updates, id)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.CompanyName, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Website,
		&c.AddressLine1, &c.AddressLine2, &c.PostalCode, &c.City, &c.Country, &c.TaxID, &c.Notes,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
