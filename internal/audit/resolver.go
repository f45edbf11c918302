package audit

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/fintelligent/auditor/internal/store"
)

// detailLimit caps how many invoices a detail listing renders before
// summarizing the remainder.
const detailLimit = 10

// InvoiceStore is the slice of the relational store the resolver depends on.
type InvoiceStore interface {
	CountByStatus(ctx context.Context, status string) (int, float64, error)
	CountByApprovalStatus(ctx context.Context, status string) (int, float64, error)
	CountAll(ctx context.Context) (int, error)
	SumByCategory(ctx context.Context) ([]store.GroupSum, error)
	SumByDepartment(ctx context.Context) ([]store.GroupSum, error)
	SumByVendor(ctx context.Context) ([]store.GroupSum, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]store.Invoice, error)
	ListByApprovalStatus(ctx context.Context, status string, limit int) ([]store.Invoice, error)
	ListRecent(ctx context.Context, limit int) ([]store.Invoice, error)
}

// Resolver translates recognized query intents into aggregate/filter
// operations over the invoice set and renders each as a natural-language
// fragment. Store failures are rendered as in-band marked text; the
// resolver never lets an error escape to the workflow.
type Resolver struct {
	store  InvoiceStore
	logger *log.Logger
}

func NewResolver(st InvoiceStore, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(log.Writer(), "[RESOLVER] ", log.LstdFlags)
	}
	return &Resolver{store: st, logger: logger}
}

// queryTemplate is one (predicate, handler) pair. Templates are evaluated
// in fixed priority order; the first match wins and later templates are
// never reached.
type queryTemplate struct {
	name    string
	matches func(q string) bool
	run     func(ctx context.Context, r *Resolver) (string, error)
}

func countish(q string) bool {
	return strings.Contains(q, "count") || strings.Contains(q, "how many")
}

var queryTemplates = []queryTemplate{
	{
		name:    "count_pending",
		matches: func(q string) bool { return countish(q) && strings.Contains(q, "pending") },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			return r.countSummary(ctx, store.StatusPending, "pending", false)
		},
	},
	{
		name:    "count_overdue",
		matches: func(q string) bool { return countish(q) && strings.Contains(q, "overdue") },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			return r.countSummary(ctx, store.StatusOverdue, "overdue", true)
		},
	},
	{
		name:    "count_paid",
		matches: func(q string) bool { return countish(q) && strings.Contains(q, "paid") },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			return r.countSummary(ctx, store.StatusPaid, "paid", false)
		},
	},
	{
		name: "spending_by_category",
		matches: func(q string) bool {
			return strings.Contains(q, "category") || strings.Contains(q, "spending by")
		},
		run: func(ctx context.Context, r *Resolver) (string, error) {
			sums, err := r.store.SumByCategory(ctx)
			if err != nil {
				return "", err
			}
			return renderGroups("Spending by category:", sums), nil
		},
	},
	{
		name:    "spending_by_department",
		matches: func(q string) bool { return strings.Contains(q, "department") },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			sums, err := r.store.SumByDepartment(ctx)
			if err != nil {
				return "", err
			}
			return renderGroups("Spending by department:", sums), nil
		},
	},
	{
		name: "totals_by_vendor",
		matches: func(q string) bool {
			return strings.Contains(q, "total") || strings.Contains(q, "sum")
		},
		run: func(ctx context.Context, r *Resolver) (string, error) {
			sums, err := r.store.SumByVendor(ctx)
			if err != nil {
				return "", err
			}
			return renderGroups("Total invoice amounts by vendor:", sums), nil
		},
	},
	{
		name:    "pending_detail",
		matches: func(q string) bool { return strings.Contains(q, "pending") },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			return r.detailListing(ctx, store.StatusPending, "Pending", false)
		},
	},
	{
		name:    "overdue_detail",
		matches: func(q string) bool { return strings.Contains(q, "overdue") },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			return r.detailListing(ctx, store.StatusOverdue, "Overdue", true)
		},
	},
	{
		name:    "paid_detail",
		matches: func(q string) bool { return strings.Contains(q, "paid") },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			return r.detailListing(ctx, store.StatusPaid, "Paid", false)
		},
	},
	{
		name:    "count_all",
		matches: countish,
		run: func(ctx context.Context, r *Resolver) (string, error) {
			count, err := r.store.CountAll(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("There are %d invoices in total.", count), nil
		},
	},
	{
		name:    "recent",
		matches: func(q string) bool { return true },
		run: func(ctx context.Context, r *Resolver) (string, error) {
			invs, err := r.store.ListRecent(ctx, detailLimit)
			if err != nil {
				return "", err
			}
			if len(invs) == 0 {
				return "No invoices found.", nil
			}
			var b strings.Builder
			b.WriteString("Most recent invoices:")
			for _, inv := range invs {
				fmt.Fprintf(&b, "\n- %s | %s | $%.2f | %s", inv.InvoiceID, inv.Vendor, inv.Amount, inv.Status)
			}
			return b.String(), nil
		},
	},
}

// Resolve picks exactly one query template by first-match priority and
// returns its rendered text. Storage failures are caught here and returned
// as a marked in-band string so the workflow continues to generation.
func (r *Resolver) Resolve(ctx context.Context, query string) string {
	q := strings.ToLower(query)
	for _, tmpl := range queryTemplates {
		if !tmpl.matches(q) {
			continue
		}
		out, err := tmpl.run(ctx, r)
		if err != nil {
			storeErrorsTotal.Inc()
			r.logger.Printf("template %s failed: %v", tmpl.name, err)
			return fmt.Sprintf("[structured query error: %v]", err)
		}
		return out
	}
	// Unreachable: the last template matches everything.
	return ""
}

func (r *Resolver) countSummary(ctx context.Context, status, label string, byApproval bool) (string, error) {
	var (
		count int
		total float64
		err   error
	)
	if byApproval {
		count, total, err = r.store.CountByApprovalStatus(ctx, status)
	} else {
		count, total, err = r.store.CountByStatus(ctx, status)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("There are %d %s invoices totaling $%.2f.", count, label, total), nil
}

func (r *Resolver) detailListing(ctx context.Context, status, label string, byApproval bool) (string, error) {
	var (
		invs  []store.Invoice
		count int
		err   error
	)
	if byApproval {
		count, _, err = r.store.CountByApprovalStatus(ctx, status)
		if err != nil {
			return "", err
		}
		invs, err = r.store.ListByApprovalStatus(ctx, status, detailLimit)
	} else {
		count, _, err = r.store.CountByStatus(ctx, status)
		if err != nil {
			return "", err
		}
		invs, err = r.store.ListByStatus(ctx, status, detailLimit)
	}
	if err != nil {
		return "", err
	}
	if len(invs) == 0 {
		return fmt.Sprintf("No %s invoices found.", strings.ToLower(label)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s invoices:", label)
	for _, inv := range invs {
		due := "n/a"
		if inv.DueDate != nil {
			due = inv.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "\n- %s | %s | $%.2f | due %s", inv.InvoiceID, inv.Vendor, inv.Amount, due)
	}
	if remaining := count - len(invs); remaining > 0 {
		fmt.Fprintf(&b, "\n... and %d more.", remaining)
	}
	return b.String(), nil
}

func renderGroups(header string, sums []store.GroupSum) string {
	if len(sums) == 0 {
		return "No invoices found."
	}
	var b strings.Builder
	b.WriteString(header)
	for _, g := range sums {
		key := g.Key
		if key == "" {
			key = "Uncategorized"
		}
		fmt.Fprintf(&b, "\n- %s: $%.2f", key, g.Total)
	}
	return b.String()
}
