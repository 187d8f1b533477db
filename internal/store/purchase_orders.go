package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vendor-management-api/internal/models"
	"vendor-management-api/internal/validate"

	"github.com/lib/pq"
)

const purchaseOrderColumns = `id, po_number, vendor_id, order_date, delivery_date, items, quantity,
	status, quality_rating, issue_date, acknowledgment_date, created_at, updated_at`

func scanPurchaseOrder(row scanner, extra ...any) (models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	var items []byte
	dest := []any{
		&po.ID, &po.PONumber, &po.VendorID, &po.OrderDate, &po.DeliveryDate, &items, &po.Quantity,
		&po.Status, &po.QualityRating, &po.IssueDate, &po.AcknowledgmentDate, &po.CreatedAt, &po.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.PurchaseOrder{}, err
	}
	po.Items = json.RawMessage(items)
	return po, nil
}

// purchaseOrderConstraintError maps constraint violations to field errors.
func purchaseOrderConstraintError(err error) error {
	code, constraint, ok := pgError(err)
	if !ok {
		return err
	}
	switch {
	case code == codeUniqueViolation && strings.Contains(constraint, "po_number"):
		return validate.Field("po_number", "purchase order with this po number already exists.")
	case code == codeForeignKeyViolation && strings.Contains(constraint, "vendor"):
		return validate.Field("vendor", "Invalid pk - object does not exist.")
	}
	return err
}

// requireVendor reports a field error when vendorID does not exist.
func requireVendor(ctx context.Context, q querier, vendorID int64) error {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM vendors WHERE id = $1)`, vendorID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check vendor %d: %w", vendorID, err)
	}
	if !exists {
		return validate.Field("vendor", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", vendorID))
	}
	return nil
}

func itemsOrDefault(items json.RawMessage) string {
	if len(items) == 0 || string(items) == "null" {
		return "[]"
	}
	return string(items)
}

// ListPurchaseOrders returns one page of orders and the total number matching f.
func (s *Store) ListPurchaseOrders(ctx context.Context, f models.PurchaseOrderFilter) ([]models.PurchaseOrder, int, error) {
	clauses := []string{}
	args := []any{}

	if f.VendorID > 0 {
		args = append(args, f.VendorID)
		clauses = append(clauses, fmt.Sprintf("vendor_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		args = append(args, pq.Array(f.Statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.Q != "" {
		args = append(args, "%"+f.Q+"%")
		clauses = append(clauses, fmt.Sprintf("po_number ILIKE $%d", len(args)))
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	sqlStr := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total_count FROM purchase_orders%s`, purchaseOrderColumns, whereClause)
	sqlStr += buildOrderBy(f.Sort, map[string]string{
		"id":                  "id",
		"po_number":           "po_number",
		"order_date":          "order_date",
		"delivery_date":       "delivery_date",
		"issue_date":          "issue_date",
		"acknowledgment_date": "acknowledgment_date",
		"status":              "status",
		"quality_rating":      "quality_rating",
		"created_at":          "created_at",
	})
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	orders := []models.PurchaseOrder{}
	var total int
	for rows.Next() {
		po, err := scanPurchaseOrder(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list purchase orders: %w", err)
	}
	return orders, total, nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id int64) (models.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(s.db.QueryRowContext(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PurchaseOrder{}, ErrNotFound
	}
	if err != nil {
		return models.PurchaseOrder{}, fmt.Errorf("get purchase order %d: %w", id, err)
	}
	return po, nil
}

// CreatePurchaseOrder inserts an order and recalculates its vendor.
func (s *Store) CreatePurchaseOrder(ctx context.Context, in models.CreatePurchaseOrderRequest) (models.PurchaseOrder, error) {
	now := s.now().UTC()
	orderDate, issueDate := now, now
	if in.OrderDate != nil {
		orderDate = *in.OrderDate
	}
	if in.IssueDate != nil {
		issueDate = *in.IssueDate
	}
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}

	var out models.PurchaseOrder
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireVendor(ctx, tx, in.VendorID); err != nil {
			return err
		}
		po, err := scanPurchaseOrder(tx.QueryRowContext(ctx, `
			INSERT INTO purchase_orders
				(po_number, vendor_id, order_date, delivery_date, items, quantity,
				 status, quality_rating, issue_date, acknowledgment_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING `+purchaseOrderColumns,
			strings.TrimSpace(in.PONumber), in.VendorID, orderDate, *in.DeliveryDate, itemsOrDefault(in.Items),
			in.Quantity, string(status), in.QualityRating, issueDate, in.AcknowledgmentDate))
		if err != nil {
			return purchaseOrderConstraintError(err)
		}
		out = po
		return s.recalculate(ctx, tx, po.VendorID)
	})
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	return out, nil
}

// UpdatePurchaseOrder changes the supplied fields and recalculates the
// vendor, and the previous vendor too when the order moved.
func (s *Store) UpdatePurchaseOrder(ctx context.Context, id int64, in models.UpdatePurchaseOrderRequest) (models.PurchaseOrder, error) {
	var set setClause
	if in.PONumber != nil {
		set.add("po_number", strings.TrimSpace(*in.PONumber))
	}
	if in.VendorID != nil {
		set.add("vendor_id", *in.VendorID)
	}
	if in.OrderDate != nil {
		set.add("order_date", *in.OrderDate)
	}
	if in.DeliveryDate != nil {
		set.add("delivery_date", *in.DeliveryDate)
	}
	if in.Items != nil {
		set.add("items", itemsOrDefault(*in.Items))
	}
	if in.Quantity != nil {
		set.add("quantity", *in.Quantity)
	}
	if in.Status != nil {
		set.add("status", string(*in.Status))
	}
	if in.QualityRating != nil {
		set.add("quality_rating", *in.QualityRating)
	}
	if in.IssueDate != nil {
		set.add("issue_date", *in.IssueDate)
	}
	if in.AcknowledgmentDate != nil {
		set.add("acknowledgment_date", *in.AcknowledgmentDate)
	}

	var out models.PurchaseOrder
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var prevVendor int64
		err := tx.QueryRowContext(ctx, `SELECT vendor_id FROM purchase_orders WHERE id = $1`, id).Scan(&prevVendor)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get purchase order %d: %w", id, err)
		}
		if in.VendorID != nil && *in.VendorID != prevVendor {
			if err := requireVendor(ctx, tx, *in.VendorID); err != nil {
				return err
			}
		}

		if set.empty() {
			out, err = scanPurchaseOrder(tx.QueryRowContext(ctx,
				`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id))
		} else {
			sets, next := set.sql()
			sqlStr := fmt.Sprintf(`UPDATE purchase_orders SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
				sets, next, purchaseOrderColumns)
			out, err = scanPurchaseOrder(tx.QueryRowContext(ctx, sqlStr, append(set.args, id)...))
		}
		if err != nil {
			return purchaseOrderConstraintError(err)
		}

		if prevVendor != out.VendorID {
			if err := s.recalculate(ctx, tx, prevVendor); err != nil {
				return err
			}
		}
		return s.recalculate(ctx, tx, out.VendorID)
	})
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	return out, nil
}

// DeletePurchaseOrder removes an order and recalculates its vendor from the
// orders that remain.
func (s *Store) DeletePurchaseOrder(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var vendorID int64
		err := tx.QueryRowContext(ctx, `DELETE FROM purchase_orders WHERE id = $1 RETURNING vendor_id`, id).Scan(&vendorID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("delete purchase order %d: %w", id, err)
		}
		return s.recalculate(ctx, tx, vendorID)
	})
}

// AcknowledgePurchaseOrder stamps the order's acknowledgment date with the
// current time and recalculates its vendor. Calling it again moves the
// timestamp forward.
func (s *Store) AcknowledgePurchaseOrder(ctx context.Context, id int64) (models.PurchaseOrder, error) {
	var out models.PurchaseOrder
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		po, err := scanPurchaseOrder(tx.QueryRowContext(ctx, `
			UPDATE purchase_orders SET acknowledgment_date = $1, updated_at = now()
			WHERE id = $2
			RETURNING `+purchaseOrderColumns, s.now().UTC(), id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("acknowledge purchase order %d: %w", id, err)
		}
		out = po
		return s.recalculate(ctx, tx, po.VendorID)
	})
	if err != nil {
		return models.PurchaseOrder{}, err
	}
	return out, nil
}
