package models

// CollectableObject is a catalog entry. Category membership is many-to-many:
// one name may appear under several categories, one row per membership.
// Value decays after the object is collected; rows are never deleted.
type CollectableObject struct {
	Locale      string `gorm:"primaryKey;size:8" json:"locale"`
	Category    string `gorm:"primaryKey;size:64" json:"category"`
	Name        string `gorm:"primaryKey;size:128;index" json:"name"`
	ObjectID    string `gorm:"type:uuid;index" json:"object_id"`
	Description string `gorm:"type:text" json:"description"`
	Value       int64  `gorm:"not null;default:0" json:"value"`
}

// Category is a distinct category name from the catalog.
type Category struct {
	Name string `json:"name"`
}

// ActiveMultiplier is one of today's boosted categories.
type ActiveMultiplier struct {
	Category   string  `json:"category"`
	Multiplier float32 `json:"multiplier"`
}
