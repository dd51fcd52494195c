package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/db"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Document, error)
	List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error)
	Create(ctx context.Context, doc Document) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	InsertItem(ctx context.Context, item Item) (int64, error)
	DeleteItems(ctx context.Context, documentID int64) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	NextNumber(ctx context.Context, companyID int64, docType billing.DocumentType, date time.Time) (string, error)
	LoadSource(ctx context.Context, id int64) (billing.Source, error)
	MarkOverdue(ctx context.Context, asOf time.Time) ([]int64, error)
}

const selectColumns = `
	id, company_id, client_id, type, number, status, issue_date, due_date,
	reference, notes, payment_terms, currency, language, template,
	discount_percent, subtotal, discount_total, tax_total, total,
	source_document_id, created_at, updated_at,
	(SELECT c.updated_at FROM companies c WHERE c.id = documents.company_id),
	(SELECT cl.updated_at FROM clients cl WHERE cl.id = documents.client_id)`

var updatableColumns = []string{
	"client_id", "issue_date", "due_date", "reference", "notes", "payment_terms",
	"currency", "language", "template", "discount_percent", "subtotal",
	"discount_total", "tax_total", "total",
}

var numberPrefixes = map[billing.DocumentType]string{
	billing.DocumentTypeInvoice: "INV",
	billing.DocumentTypeOffer:   "OFF",
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Get(ctx context.Context, id int64) (*Document, error) {
	row := r.db.QueryRow(ctx, "SELECT "+selectColumns+" FROM documents WHERE id = $1", id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, product_id, position, description, unit, quantity,
		       unit_price, discount_percent, tax_rate, tax_amount, amount
		FROM document_items
		WHERE document_id = $1
		ORDER BY position, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.ProductID, &it.Position, &it.Description, &it.Unit,
			&it.Quantity, &it.UnitPrice, &it.DiscountPercent, &it.TaxRate, &it.TaxAmount, &it.Amount); err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, it)
	}
	return doc, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.CompanyID > 0 {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", argPos))
		args = append(args, req.CompanyID)
		argPos++
	}
	if req.ClientID > 0 {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, req.ClientID)
		argPos++
	}
	if req.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, req.Type)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.Params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(number ILIKE $%d OR reference ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Params.Search+"%")
		argPos++
	}
	where := shared.WhereClause(conditions)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM documents "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM documents %s ORDER BY issue_date DESC, id DESC LIMIT $%d OFFSET $%d",
		selectColumns, where, argPos, argPos+1)
	args = append(args, req.Params.PerPage, req.Params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *doc)
	}
	return docs, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, d Document) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO documents (
			company_id, client_id, type, number, status, issue_date, due_date,
			reference, notes, payment_terms, currency, language, template,
			discount_percent, subtotal, discount_total, tax_total, total,
			source_document_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19)
		RETURNING id`,
		d.CompanyID, d.ClientID, d.Type, d.Number, d.Status, d.IssueDate, d.DueDate,
		d.Reference, d.Notes, d.PaymentTerms, d.Currency, d.Language, d.Template,
		d.DiscountPercent, d.Subtotal, d.DiscountTotal, d.TaxTotal, d.Total,
		d.SourceDocumentID,
	).Scan(&id)
	switch {
	case db.IsForeignKeyViolation(err):
		return 0, httpx.FieldError("client_id", "company or client does not exist")
	case db.IsUniqueViolation(err):
		return 0, fmt.Errorf("document number %q: %w", d.Number, httpx.ErrDuplicate)
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query, args := shared.UpdateStatement("documents", updatableColumns, updates, id)
	tag, err := r.db.Exec(ctx, query, args...)
	if db.IsForeignKeyViolation(err) {
		return httpx.FieldError("client_id", "does not exist")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, it Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_items (
			document_id, product_id, position, description, unit, quantity,
			unit_price, discount_percent, tax_rate, tax_amount, amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		it.DocumentID, it.ProductID, it.Position, it.Description, it.Unit, it.Quantity,
		it.UnitPrice, it.DiscountPercent, it.TaxRate, it.TaxAmount, it.Amount,
	).Scan(&id)
	if db.IsForeignKeyViolation(err) {
		return 0, httpx.FieldError(fmt.Sprintf("items[%d].product_id", it.Position-1), "does not exist")
	}
	return id, err
}

func (r *repository) DeleteItems(ctx context.Context, documentID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM document_items WHERE document_id = $1", documentID)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, "UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// NextNumber allocates PREFIX-YYYYMM-NNNN from a per company, type and month
// sequence.
func (r *repository) NextNumber(ctx context.Context, companyID int64, docType billing.DocumentType, date time.Time) (string, error) {
	prefix, ok := numberPrefixes[docType]
	if !ok {
		return "", fmt.Errorf("%w: unknown document type %q", httpx.ErrValidation, docType)
	}
	period := date.Format("200601")
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, doc_type, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, companyID, prefix, period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return FormatNumber(prefix, date, seq), nil
}

// FormatNumber renders a document number such as INV-202501-0007.
func FormatNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("200601"), seq)
}

// LoadSource reads the raw records a document is assembled from. Numeric and
// date columns are read as text so the assembler sees the same loose values
// an API client would send.
func (r *repository) LoadSource(ctx context.Context, id int64) (billing.Source, error) {
	var src billing.Source

	doc, err := r.queryRecord(ctx, `
		SELECT type, number, issue_date::text AS issue_date, due_date::text AS due_date,
		       reference, notes, payment_terms, currency, language,
		       discount_percent::text AS discount_percent, company_id, client_id
		FROM documents WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return src, fmt.Errorf("document %d: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return src, fmt.Errorf("load document: %w", err)
	}
	src.Document = doc

	src.Company, err = r.queryRecord(ctx, `
		SELECT name, contact_name, address_line1, address_line2, postal_code, city,
		       country, tax_id, email, phone, website, bank_name, account_holder,
		       iban, bic, payment_link, logo, signature, stamp
		FROM companies WHERE id = $1`, doc["company_id"])
	if err != nil {
		return src, fmt.Errorf("load company: %w", err)
	}

	src.Client, err = r.queryRecord(ctx, `
		SELECT company_name, first_name, last_name, email, phone, website,
		       address_line1, address_line2, postal_code, city, country, tax_id
		FROM clients WHERE id = $1`, doc["client_id"])
	if err != nil {
		return src, fmt.Errorf("load client: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT description, unit, quantity::text AS quantity, unit_price::text AS unit_price,
		       discount_percent::text AS discount_percent, tax_rate::text AS tax_rate
		FROM document_items WHERE document_id = $1 ORDER BY position, id`, id)
	if err != nil {
		return src, fmt.Errorf("load items: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return src, fmt.Errorf("load items: %w", err)
	}
	for _, item := range items {
		src.Items = append(src.Items, billing.Record(item))
	}
	return src, nil
}

func (r *repository) queryRecord(ctx context.Context, query string, args ...any) (billing.Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	return billing.Record(m), nil
}

// MarkOverdue flags sent invoices whose due date lies before asOf and
// returns their ids.
func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE documents SET status = $1, updated_at = NOW()
		WHERE type = $2 AND status = $3 AND due_date IS NOT NULL AND due_date < $4
		RETURNING id`, StatusOverdue, billing.DocumentTypeInvoice, StatusSent, asOf)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.ClientID, &d.Type, &d.Number, &d.Status, &d.IssueDate, &d.DueDate,
		&d.Reference, &d.Notes, &d.PaymentTerms, &d.Currency, &d.Language, &d.Template,
		&d.DiscountPercent, &d.Subtotal, &d.DiscountTotal, &d.TaxTotal, &d.Total,
		&d.SourceDocumentID, &d.CreatedAt, &d.UpdatedAt,
		&d.CompanyUpdatedAt, &d.ClientUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
