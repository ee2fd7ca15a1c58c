package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		// Tables from the Olist file map.
		{name: "orders", input: "orders"},
		{name: "order_items", input: "order_items"},
		{name: "order_payments", input: "order_payments"},
		{name: "product_category_translation", input: "product_category_translation"},
		{name: "raw_schema", input: "raw"},
		{name: "max_length", input: strings.Repeat("t", 128)},

		{name: "empty", input: "", wantErr: "name is required"},
		{name: "too_long", input: strings.Repeat("t", 129), wantErr: "at most 128 characters"},
		{name: "csv_file_name", input: "olist_orders_dataset.csv", wantErr: "must match"},
		{name: "leading_digit", input: "2017_orders", wantErr: "must match"},
		{name: "qualified", input: "raw.orders", wantErr: "must match"},
		{name: "statement_suffix", input: "orders; DROP SCHEMA raw", wantErr: "must match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Quoting keeps CSV header text intact.
		{name: "plain_header", input: "order_id", want: `"order_id"`},
		{name: "header_with_space", input: "customer city", want: `"customer city"`},
		{name: "header_with_quote", input: `review "title"`, want: `"review ""title"""`},
		{name: "provenance_column", input: "_source_file", want: `"_source_file"`},
		{name: "empty", input: "", want: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteIdentifier(tt.input))
		})
	}
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, `"raw"."orders"`, QualifiedName("raw", "orders"))
}

func TestValidateColumnType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		// Provenance columns are TIMESTAMP and VARCHAR.
		{name: "text_column", input: "VARCHAR"},
		{name: "ingested_at", input: "TIMESTAMP"},
		{name: "money", input: "DECIMAL(10, 2)"},
		{name: "lowercase", input: "double"},

		{name: "empty", input: "", wantErr: "column type is required"},
		{name: "comment", input: "INT -- x", wantErr: "invalid characters"},
		{name: "semicolon", input: "INT; DROP", wantErr: "invalid characters"},
		{name: "bad_pattern", input: "INT(", wantErr: "not a recognized type pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumnType(tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
