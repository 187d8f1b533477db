// Package importer loads purchase orders from .xlsx workbooks. Each row is
// created through an OrderSink, so the usual per-order side effects apply.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"vendor-management-api/internal/models"
	"vendor-management-api/internal/store"
	"vendor-management-api/internal/validate"

	"github.com/tealeg/xlsx/v3"
)

const defaultMaxErrors = 50

// OrderSink is where imported rows end up. *store.Store implements it.
type OrderSink interface {
	VendorByCode(ctx context.Context, code string) (models.Vendor, error)
	CreatePurchaseOrder(ctx context.Context, in models.CreatePurchaseOrderRequest) (models.PurchaseOrder, error)
}

// ImportOptions defines the configuration for workbook imports
type ImportOptions struct {
	Mapping   *Mapping // nil means the embedded default
	DryRun    bool     // validate rows and resolve vendors without creating orders
	MaxErrors int      // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics. In a dry run
// Inserted counts the rows that would have been created.
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// ErrTooManyErrors stops an import once the error budget is spent.
var ErrTooManyErrors = errors.New("too many errors")

const maxSamples = 20

type importer struct {
	sink     OrderSink
	mapping  *Mapping
	headers  map[string]string
	opts     ImportOptions
	date1904 bool
	vendors  map[string]int64
	summary  *ImportSummary
}

// ImportPurchaseOrders reads a workbook from r and creates one purchase order
// per data row. The first row of every imported sheet is its header.
func ImportPurchaseOrders(ctx context.Context, sink OrderSink, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{DryRun: opts.DryRun, Sheets: []SheetSummary{}}

	if opts.MaxErrors <= 0 {
		opts.MaxErrors = defaultMaxErrors
	}
	if opts.Mapping == nil {
		m, err := LoadMapping("")
		if err != nil {
			return summary, err
		}
		opts.Mapping = m
	}

	// xlsx needs random access, so the upload is buffered.
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("read workbook: %w", err)
	}
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("open workbook: %w", err)
	}

	im := &importer{
		sink:     sink,
		mapping:  opts.Mapping,
		headers:  opts.Mapping.headerIndex(),
		opts:     opts,
		date1904: wb.Date1904,
		vendors:  make(map[string]int64),
		summary:  &summary,
	}

	for _, sheet := range wb.Sheets {
		if !im.mapping.wantsSheet(sheet.Name) {
			continue
		}
		ss, err := im.importSheet(ctx, sheet)
		summary.Sheets = append(summary.Sheets, ss)
		summary.Inserted += ss.Inserted
		summary.Skipped += ss.Skipped
		summary.Errors += ss.Errors
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (im *importer) importSheet(ctx context.Context, sheet *xlsx.Sheet) (SheetSummary, error) {
	ss := SheetSummary{Name: sheet.Name}
	var columns map[int]string

	err := sheet.ForEachRow(func(row *xlsx.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := map[int]*xlsx.Cell{}
		if err := row.ForEachCell(func(c *xlsx.Cell) error {
			x, _ := c.GetCoordinates()
			cells[x] = c
			return nil
		}, xlsx.SkipEmptyCells); err != nil {
			return err
		}
		rowNum := row.GetCoordinate() + 1

		if columns == nil {
			cols, err := im.headerColumns(cells)
			if err != nil {
				ss.addError(rowNum, err.Error())
				return errSkipSheet
			}
			columns = cols
			return nil
		}

		raw := map[string]*xlsx.Cell{}
		for x, field := range columns {
			if c, ok := cells[x]; ok && strings.TrimSpace(c.String()) != "" {
				raw[field] = c
			}
		}
		if len(raw) == 0 {
			ss.Skipped++
			return nil
		}

		if err := im.importRow(ctx, raw); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ss.addError(rowNum, err.Error())
			if im.summary.Errors+ss.Errors > im.opts.MaxErrors {
				return ErrTooManyErrors
			}
			return nil
		}
		ss.Inserted++
		return nil
	}, xlsx.SkipEmptyRows)

	switch {
	case err == nil, errors.Is(err, errSkipSheet):
		return ss, nil
	case errors.Is(err, ErrTooManyErrors):
		return ss, fmt.Errorf("%w (%d), stopping import", ErrTooManyErrors, im.summary.Errors+ss.Errors)
	default:
		return ss, fmt.Errorf("sheet %q: %w", sheet.Name, err)
	}
}

var errSkipSheet = errors.New("skip sheet")

func (ss *SheetSummary) addError(row int, msg string) {
	ss.Errors++
	if len(ss.Samples) < maxSamples {
		ss.Samples = append(ss.Samples, RowError{Sheet: ss.Name, Row: row, Message: msg})
	}
}

// headerColumns resolves the header row to column positions and checks that
// every required field is present.
func (im *importer) headerColumns(cells map[int]*xlsx.Cell) (map[int]string, error) {
	columns := map[int]string{}
	seen := map[string]bool{}
	for x, c := range cells {
		field, ok := im.headers[normalizeHeader(c.String())]
		if !ok || seen[field] {
			continue
		}
		columns[x] = field
		seen[field] = true
	}
	var missing []string
	for _, f := range requiredFields {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func (im *importer) importRow(ctx context.Context, raw map[string]*xlsx.Cell) error {
	in, err := im.buildRequest(raw)
	if err != nil {
		return err
	}

	code := strings.TrimSpace(raw[FieldVendorCode].String())
	vendorID, err := im.resolveVendor(ctx, code)
	if err != nil {
		return err
	}
	in.VendorID = vendorID

	if err := validate.Struct(in); err != nil {
		return err
	}
	if im.opts.DryRun {
		return nil
	}
	_, err = im.sink.CreatePurchaseOrder(ctx, in)
	return err
}

func (im *importer) resolveVendor(ctx context.Context, code string) (int64, error) {
	if code == "" {
		return 0, validate.Field(FieldVendorCode, "This field is required.")
	}
	if id, ok := im.vendors[code]; ok {
		return id, nil
	}
	v, err := im.sink.VendorByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return 0, validate.Field(FieldVendorCode, fmt.Sprintf("Unknown vendor code %q.", code))
	}
	if err != nil {
		return 0, err
	}
	im.vendors[code] = v.ID
	return v.ID, nil
}

func (im *importer) buildRequest(raw map[string]*xlsx.Cell) (models.CreatePurchaseOrderRequest, error) {
	var in models.CreatePurchaseOrderRequest
	errs := validate.Errors{}

	text := func(field string) string {
		if c, ok := raw[field]; ok {
			return strings.TrimSpace(c.String())
		}
		return ""
	}
	date := func(field string) *time.Time {
		c, ok := raw[field]
		if !ok {
			return nil
		}
		t, err := im.parseDate(c)
		if err != nil {
			errs[field] = err.Error()
			return nil
		}
		return &t
	}

	in.PONumber = text(FieldPONumber)
	in.OrderDate = date(FieldOrderDate)
	in.DeliveryDate = date(FieldDeliveryDate)
	in.IssueDate = date(FieldIssueDate)
	in.AcknowledgmentDate = date(FieldAcknowledgmentDate)
	in.Status = models.OrderStatus(strings.ToLower(text(FieldStatus)))

	if s := text(FieldItems); s != "" {
		if !json.Valid([]byte(s)) {
			errs[FieldItems] = "Value must be valid JSON."
		} else {
			in.Items = json.RawMessage(s)
		}
	}
	if s := text(FieldQuantity); s != "" {
		n, err := parseInt(s)
		if err != nil {
			errs[FieldQuantity] = "A valid integer is required."
		} else {
			in.Quantity = n
		}
	}
	if s := text(FieldQualityRating); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			errs[FieldQualityRating] = "A valid number is required."
		} else {
			in.QualityRating = &f
		}
	}

	if len(errs) > 0 {
		return in, errs
	}
	return in, nil
}

func (im *importer) parseDate(c *xlsx.Cell) (time.Time, error) {
	if c.IsTime() {
		t, err := c.GetTime(im.date1904)
		if err == nil {
			return t.UTC(), nil
		}
	}
	s := strings.TrimSpace(c.String())
	for _, layout := range im.mapping.DateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseInt accepts integral values that spreadsheets render as floats.
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
