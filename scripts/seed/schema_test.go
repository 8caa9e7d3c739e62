package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func tableDDL(t *testing.T, name string) string {
	t.Helper()
	for _, stmt := range schema {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS "+name+" (") {
			return stmt
		}
	}
	t.Fatalf("no CREATE TABLE statement for %s", name)
	return ""
}

// Standalone payments are written with a NULL document_id; the column must
// not be declared NOT NULL or the registry rejects them.
func TestPaymentsDocumentColumnIsNullable(t *testing.T) {
	ddl := tableDDL(t, "payments")
	require.Contains(t, ddl, "document_id UUID,")
	require.NotContains(t, ddl, "document_id UUID NOT NULL")
	require.Contains(t, ddl, "counterparty_id BIGINT")
	require.Contains(t, ddl, "reference TEXT")
}

// Quantities may be fractional (2.5 hours, 0.75 kg). A BIGINT column would
// round them on insert and the stored snapshot would no longer reconcile
// with the net/tax/total computed from the exact quantity.
func TestLineQuantityColumnsKeepFractions(t *testing.T) {
	for _, table := range []string{"invoice_lines", "sales_order_lines", "bill_lines"} {
		ddl := tableDDL(t, table)
		require.Contains(t, ddl, "quantity NUMERIC(12,3) NOT NULL", "table %s", table)
		require.NotContains(t, ddl, "quantity BIGINT", "table %s", table)
	}
}
