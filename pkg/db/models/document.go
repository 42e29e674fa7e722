package models

import "time"

// Document is one named JSON blob in kv_documents.
type Document struct {
	Key       string    `gorm:"column:doc_key;primaryKey"`
	Body      string    `gorm:"column:body;type:text;not null"`
	Version   int64     `gorm:"column:version;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Document) TableName() string {
	return "kv_documents"
}
