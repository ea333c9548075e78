package model

const CartSequenceCounter = "cart_sequence"

type Counter struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null"`
}

func (Counter) TableName() string { return "cart_counters" }
