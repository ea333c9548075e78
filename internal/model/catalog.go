package model

// CatalogService is a service definition owned by the catalog. It is read only at cart creation.
type CatalogService struct {
	Key             string `gorm:"column:service_key;primaryKey"`
	Name            string `gorm:"column:name;not null"`
	Description     string `gorm:"column:description;not null"`
	BasePriceCents  int64  `gorm:"column:base_price_cents;not null"`
	SupplierType    string `gorm:"column:supplier_type;not null"`
	DefaultSelected bool   `gorm:"column:default_selected;not null"`
	Position        int    `gorm:"column:position;not null"`
	Active          bool   `gorm:"column:active;not null"`
}

func (CatalogService) TableName() string { return "catalog_services" }
