package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fintelligent/auditor/internal/store"
)

func TestStoreAgainstPostgres(t *testing.T) {
	if os.Getenv("AUDITOR_IT") != "1" {
		t.Skip("set AUDITOR_IT=1 to run integration tests")
	}

	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase("auditor"),
		tcPostgres.WithUsername("auditor"),
		tcPostgres.WithPassword("auditor"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://auditor:auditor@%s:%s/auditor?sslmode=disable", host, port.Port())

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		t.Fatalf("migrate init: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("migrate up: %v", err)
	}

	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}

	issue := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 1, 0)
	invoices := []store.Invoice{
		{InvoiceID: "INV-001", Vendor: "Acme Supplies", Amount: 150, IssueDate: issue, DueDate: &due,
			Status: store.StatusPending, ApprovalStat: store.StatusPending, Category: "Office",
			Department: "Finance", PaymentTerms: "Net 30", Subtotal: 140, TaxRate: 0.07, TaxAmount: 10},
		{InvoiceID: "INV-002", Vendor: "Acme Supplies", Amount: 300, IssueDate: issue.AddDate(0, 0, 1),
			Status: store.StatusPending, ApprovalStat: store.StatusPending, Category: "IT",
			Department: "Engineering", PaymentTerms: "Net 30"},
		{InvoiceID: "INV-003", Vendor: "Globex", Amount: 500, IssueDate: issue.AddDate(0, 0, 2),
			Status: store.StatusPaid, ApprovalStat: store.StatusApproved, Category: "IT",
			Department: "Engineering", PaymentTerms: "Net 60"},
	}
	for _, inv := range invoices {
		if err := st.InsertInvoice(ctx, inv); err != nil {
			t.Fatalf("insert %s: %v", inv.InvoiceID, err)
		}
	}

	// Duplicate insert is a no-op.
	if err := st.InsertInvoice(ctx, invoices[0]); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if n, err := st.CountAll(ctx); err != nil || n != 3 {
		t.Fatalf("CountAll = %d, %v; want 3", n, err)
	}

	count, total, err := st.CountByStatus(ctx, store.StatusPending)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if count != 2 || total != 450 {
		t.Fatalf("pending = %d/%.2f, want 2/450.00", count, total)
	}

	groups, err := st.SumByCategory(ctx)
	if err != nil {
		t.Fatalf("SumByCategory: %v", err)
	}
	if len(groups) != 2 || groups[0].Key != "IT" || groups[0].Total != 800 {
		t.Fatalf("unexpected category groups: %+v", groups)
	}

	listed, err := st.ListByStatus(ctx, store.StatusPending, 10)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 pending invoices, got %d", len(listed))
	}
	// Most recent issue date first.
	if listed[0].InvoiceID != "INV-002" {
		t.Fatalf("expected INV-002 first, got %s", listed[0].InvoiceID)
	}
	if listed[1].DueDate == nil || !listed[1].DueDate.Equal(due) {
		t.Fatalf("due date not round-tripped: %+v", listed[1].DueDate)
	}
}
