package domain

// SourceFile maps one raw dataset file to its destination table in the raw schema.
type SourceFile struct {
	FileName string `json:"file" yaml:"file"`
	Table    string `json:"table" yaml:"table"`
}

// DefaultSourceFiles returns the dataset files ingested when no manifest overrides them.
// A fresh slice is returned on every call.
func DefaultSourceFiles() []SourceFile {
	return []SourceFile{
		{FileName: "olist_customers_dataset.csv", Table: "customers"},
		{FileName: "olist_geolocation_dataset.csv", Table: "geolocation"},
		{FileName: "olist_orders_dataset.csv", Table: "orders"},
		{FileName: "olist_order_items_dataset.csv", Table: "order_items"},
		{FileName: "olist_order_payments_dataset.csv", Table: "order_payments"},
		{FileName: "olist_order_reviews_dataset.csv", Table: "order_reviews"},
		{FileName: "olist_products_dataset.csv", Table: "products"},
		{FileName: "olist_sellers_dataset.csv", Table: "sellers"},
		{FileName: "product_category_name_translation.csv", Table: "product_category_translation"},
	}
}
