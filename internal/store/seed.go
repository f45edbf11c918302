package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// SeedFromCSV loads invoices from a summary CSV into the store when the
// invoices table is empty. Column order is free; missing optional columns
// become NULLs or zero values. Returns the number of rows inserted.
func (s *Store) SeedFromCSV(ctx context.Context, path string) (int, error) {
	count, err := s.CountAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"invoice_id", "vendor", "amount"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("csv missing required column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	inserted := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inserted, fmt.Errorf("read csv row: %w", err)
		}

		amount, _ := strconv.ParseFloat(field(rec, "amount"), 64)
		subtotal, _ := strconv.ParseFloat(field(rec, "subtotal"), 64)
		taxRate, _ := strconv.ParseFloat(field(rec, "tax_rate"), 64)
		taxAmount, _ := strconv.ParseFloat(field(rec, "tax_amount"), 64)

		inv := Invoice{
			InvoiceID:    field(rec, "invoice_id"),
			Vendor:       field(rec, "vendor"),
			Amount:       amount,
			IssueDate:    parseDate(field(rec, "date")),
			DueDate:      parseDatePtr(field(rec, "due_date")),
			Status:       defaultString(field(rec, "status"), StatusPending),
			ApprovalStat: defaultString(field(rec, "approval_status"), field(rec, "status")),
			Category:     field(rec, "category"),
			Department:   field(rec, "department"),
			PaymentTerms: field(rec, "payment_terms"),
			Subtotal:     subtotal,
			TaxRate:      taxRate,
			TaxAmount:    taxAmount,
		}
		if po := field(rec, "po_number"); po != "" {
			inv.PONumber = &po
		}
		if notes := field(rec, "notes"); notes != "" {
			inv.Notes = &notes
		}
		if inv.InvoiceID == "" {
			continue
		}
		if err := s.InsertInvoice(ctx, inv); err != nil {
			return inserted, fmt.Errorf("insert %s: %w", inv.InvoiceID, err)
		}
		inserted++
	}
	return inserted, nil
}

func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return t
}

func parseDatePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
