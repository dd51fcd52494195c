package companies

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
	Get(ctx context.Context, id int64) (*Company, error)
	GetByCode(ctx context.Context, code string) (*Company, error)
	List(ctx context.Context, params shared.ListParams) ([]Company, int, error)
	Create(ctx context.Context, company Company) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
}

const selectColumns = `
	id, code, name, contact_name, address_line1, address_line2, postal_code,
	city, country, tax_id, email, phone, website, bank_name, account_holder,
	iban, bic, payment_link, logo, signature, stamp, default_currency,
	default_language, created_at, updated_at`

var updatableColumns = []string{
	"name", "contact_name", "address_line1", "address_line2", "postal_code",
	"city", "country", "tax_id", "email", "phone", "website", "bank_name",
	"account_holder", "iban", "bic", "payment_link", "logo", "signature",
	"stamp", "default_currency", "default_language",
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) Get(ctx context.Context, id int64) (*Company, error) {
	row := r.db.QueryRow(ctx, "SELECT "+selectColumns+" FROM companies WHERE id = $1", id)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("company %d: %w", id, httpx.ErrNotFound)
	}
	return c, err
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Company, error) {
	row := r.db.QueryRow(ctx, "SELECT "+selectColumns+" FROM companies WHERE code = $1", code)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("company %q: %w", code, httpx.ErrNotFound)
	}
	return c, err
}

func (r *repository) List(ctx context.Context, params shared.ListParams) ([]Company, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	where := shared.WhereClause(conditions)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM companies "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM companies %s ORDER BY code LIMIT $%d OFFSET $%d",
		selectColumns, where, argPos, argPos+1)
	args = append(args, params.PerPage, params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, *c)
	}
	return companies, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Company) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO companies (
			code, name, contact_name, address_line1, address_line2, postal_code,
			city, country, tax_id, email, phone, website, bank_name, account_holder,
			iban, bic, payment_link, logo, signature, stamp, default_currency,
			default_language
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`,
		c.Code, c.Name, c.ContactName, c.AddressLine1, c.AddressLine2, c.PostalCode,
		c.City, c.Country, c.TaxID, c.Email, c.Phone, c.Website, c.BankName, c.AccountHolder,
		c.IBAN, c.BIC, c.PaymentLink, c.Logo, c.Signature, c.Stamp, c.DefaultCurrency,
		c.DefaultLanguage,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("company code %q: %w", c.Code, httpx.ErrDuplicate)
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query, args := shared.UpdateStatement("companies", updatableColumns, updates, id)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("company %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.ContactName, &c.AddressLine1, &c.AddressLine2, &c.PostalCode,
		&c.City, &c.Country, &c.TaxID, &c.Email, &c.Phone, &c.Website, &c.BankName, &c.AccountHolder,
		&c.IBAN, &c.BIC, &c.PaymentLink, &c.Logo, &c.Signature, &c.Stamp, &c.DefaultCurrency,
		&c.DefaultLanguage, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
