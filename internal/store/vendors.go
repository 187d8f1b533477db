package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"vendor-management-api/internal/models"
	"vendor-management-api/internal/validate"
)

const vendorColumns = `id, name, contact_details, address, vendor_code,
	on_time_delivery_rate, quality_rating_avg, average_response_time, fulfillment_rate,
	created_at, updated_at`

func scanVendor(row scanner, extra ...any) (models.Vendor, error) {
	var v models.Vendor
	dest := []any{
		&v.ID, &v.Name, &v.ContactDetails, &v.Address, &v.VendorCode,
		&v.OnTimeDeliveryRate, &v.QualityRatingAvg, &v.AverageResponseTime, &v.FulfillmentRate,
		&v.CreatedAt, &v.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return v, err
}

// vendorConstraintError turns a vendor_code unique violation into a field error.
func vendorConstraintError(err error) error {
	if code, constraint, ok := pgError(err); ok && code == codeUniqueViolation && strings.Contains(constraint, "vendor_code") {
		return validate.Field("vendor_code", "vendor with this vendor code already exists.")
	}
	return err
}

// ListVendors returns one page of vendors and the total number matching f.
func (s *Store) ListVendors(ctx context.Context, f models.VendorFilter) ([]models.Vendor, int, error) {
	clauses := []string{}
	args := []any{}

	// optional text search on name or code
	if f.Q != "" {
		args = append(args, "%"+f.Q+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR vendor_code ILIKE $%d)", len(args), len(args)))
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total_count FROM vendors%s`, vendorColumns, whereClause)
	sqlStr += buildOrderBy(f.Sort, map[string]string{
		"id":                    "id",
		"name":                  "name",
		"vendor_code":           "vendor_code",
		"on_time_delivery_rate": "on_time_delivery_rate",
		"quality_rating_avg":    "quality_rating_avg",
		"average_response_time": "average_response_time",
		"fulfillment_rate":      "fulfillment_rate",
		"created_at":            "created_at",
		"updated_at":            "updated_at",
	})
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	vendors := []models.Vendor{}
	var total int
	for rows.Next() {
		v, err := scanVendor(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, total, nil
}

func (s *Store) GetVendor(ctx context.Context, id int64) (models.Vendor, error) {
	v, err := scanVendor(s.db.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vendor{}, ErrNotFound
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("get vendor %d: %w", id, err)
	}
	return v, nil
}

// VendorByCode looks a vendor up by its unique vendor code.
func (s *Store) VendorByCode(ctx context.Context, code string) (models.Vendor, error) {
	v, err := scanVendor(s.db.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE vendor_code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vendor{}, ErrNotFound
	}
	if err != nil {
		return models.Vendor{}, fmt.Errorf("get vendor %q: %w", code, err)
	}
	return v, nil
}

func (s *Store) CreateVendor(ctx context.Context, in models.CreateVendorRequest) (models.Vendor, error) {
	v, err := scanVendor(s.db.QueryRowContext(ctx, `
		INSERT INTO vendors (name, contact_details, address, vendor_code)
		VALUES ($1, $2, $3, $4)
		RETURNING `+vendorColumns,
		strings.TrimSpace(in.Name), nullIfEmpty(in.ContactDetails), nullIfEmpty(in.Address), strings.TrimSpace(in.VendorCode)))
	if err != nil {
		return models.Vendor{}, vendorConstraintError(err)
	}
	return v, nil
}

// UpdateVendor changes the supplied profile fields. Metrics are untouched.
func (s *Store) UpdateVendor(ctx context.Context, id int64, in models.UpdateVendorRequest) (models.Vendor, error) {
	var set setClause
	if in.Name != nil {
		set.add("name", strings.TrimSpace(*in.Name))
	}
	if in.ContactDetails != nil {
		set.add("contact_details", nullIfEmpty(in.ContactDetails))
	}
	if in.Address != nil {
		set.add("address", nullIfEmpty(in.Address))
	}
	if in.VendorCode != nil {
		set.add("vendor_code", strings.TrimSpace(*in.VendorCode))
	}
	if set.empty() {
		return s.GetVendor(ctx, id)
	}

	sets, next := set.sql()
	sqlStr := fmt.Sprintf(`UPDATE vendors SET %s, updated_at = now() WHERE id = $%d RETURNING %s`, sets, next, vendorColumns)
	v, err := scanVendor(s.db.QueryRowContext(ctx, sqlStr, append(set.args, id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vendor{}, ErrNotFound
	}
	if err != nil {
		return models.Vendor{}, vendorConstraintError(err)
	}
	return v, nil
}

// DeleteVendor removes a vendor; its orders and history cascade.
func (s *Store) DeleteVendor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vendors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vendor %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vendor %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// VendorPerformance reads the cached metrics without recomputing them.
func (s *Store) VendorPerformance(ctx context.Context, id int64) (models.Performance, error) {
	return txRepo{q: s.db}.VendorPerformance(ctx, id)
}

// VendorHistory lists a vendor's snapshots, newest first.
func (s *Store) VendorHistory(ctx context.Context, id int64, limit, offset int) ([]models.HistoricalPerformance, int, error) {
	if _, err := s.VendorPerformance(ctx, id); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`, COUNT(*) OVER() AS total_count
		FROM historical_performances
		WHERE vendor_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendor %d history: %w", id, err)
	}
	defer rows.Close()

	out := []models.HistoricalPerformance{}
	var total int
	for rows.Next() {
		h, err := scanSnapshot(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list vendor %d history: %w", id, err)
	}
	return out, total, nil
}
