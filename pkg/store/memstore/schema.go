package memstore

import memdb "github.com/hashicorp/go-memdb"

const (
	tableTables    = "table"
	tableCustomers = "customer"
	tableCarts     = "cart"
	tableOrders    = "order"
	tableItems     = "order_item"
	tableBills     = "bill"
	tableMenu      = "menu_item"
	tableFeedback  = "feedback"
)

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    "id",
		Unique:  true,
		Indexer: &memdb.StringFieldIndex{Field: "ID"},
	}
}

func fieldIndex(name, field string) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:         name,
		AllowMissing: true,
		Indexer:      &memdb.StringFieldIndex{Field: field},
	}
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableTables: {
				Name:    tableTables,
				Indexes: map[string]*memdb.IndexSchema{"id": idIndex()},
			},
			tableCustomers: {
				Name: tableCustomers,
				Indexes: map[string]*memdb.IndexSchema{
					"id":       idIndex(),
					"table_id": fieldIndex("table_id", "TableID"),
				},
			},
			tableCarts: {
				Name: tableCarts,
				Indexes: map[string]*memdb.IndexSchema{
					"id":       idIndex(),
					"table_id": fieldIndex("table_id", "TableID"),
				},
			},
			tableOrders: {
				Name:    tableOrders,
				Indexes: map[string]*memdb.IndexSchema{"id": idIndex()},
			},
			tableItems: {
				Name: tableItems,
				Indexes: map[string]*memdb.IndexSchema{
					"id":       idIndex(),
					"order_id": fieldIndex("order_id", "OrderID"),
				},
			},
			tableBills: {
				Name: tableBills,
				Indexes: map[string]*memdb.IndexSchema{
					"id":       idIndex(),
					"order_id": fieldIndex("order_id", "OrderID"),
				},
			},
			tableMenu: {
				Name: tableMenu,
				Indexes: map[string]*memdb.IndexSchema{
					"id":       idIndex(),
					"category": fieldIndex("category", "Category"),
				},
			},
			tableFeedback: {
				Name: tableFeedback,
				Indexes: map[string]*memdb.IndexSchema{
					"id":      idIndex(),
					"bill_id": fieldIndex("bill_id", "BillID"),
				},
			},
		},
	}
}
