package schema

const SupplierProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "supplier_product",
	"fields" : [
		{"name": "sku", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "description", "type": "string"},
		{"name": "price", "type": "double"},
		{"name": "stock_quantity", "type": "int"},
		{"name": "average_rating", "type": "double"},
		{"name": "category_id", "type": "long"},
		{"name": "active", "type": "boolean"}
	]
}`

// A SupplierProductV1 is one product of the supplier feed stream.
type SupplierProductV1 struct {
	SKU           string  `avro:"sku"`
	Name          string  `avro:"name"`
	Description   string  `avro:"description"`
	Price         float64 `avro:"price"`
	StockQuantity int     `avro:"stock_quantity"`
	AverageRating float64 `avro:"average_rating"`
	CategoryID    int64   `avro:"category_id"`
	Active        bool    `avro:"active"`
}

const ModerationRuleSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "moderation_rule",
	"fields" : [
		{"name": "sku", "type": "string"},
		{"name": "blocked", "type": "boolean"}
	]
}`

// A ModerationRuleV1 blocks or unblocks one SKU on the intake gate.
type ModerationRuleV1 struct {
	SKU     string `avro:"sku"`
	Blocked bool   `avro:"blocked"`
}

const CatalogEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "catalog_event",
	"fields" : [
		{"name": "kind", "type": "string"},
		{"name": "product_id", "type": "long"},
		{"name": "image_id", "type": "long"},
		{"name": "image_url", "type": "string"}
	]
}`

// A CatalogEventV1 is one catalog change notification.
type CatalogEventV1 struct {
	Kind      string `avro:"kind"`
	ProductID int64  `avro:"product_id"`
	ImageID   int64  `avro:"image_id"`
	ImageURL  string `avro:"image_url"`
}
