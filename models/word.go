package models

// Word is a cached oracle verdict for a (locale, lowercased phrase) pair.
// Verdicts are kept forever so each phrase is judged at most once.
type Word struct {
	Locale                string `gorm:"primaryKey;size:8" json:"locale"`
	Phrase                string `gorm:"primaryKey;size:128" json:"phrase"`
	IsRealItem            bool   `json:"is_real_item"`
	CanMakePicture        bool   `json:"can_make_picture"`
	IsAbbreviation        bool   `json:"is_abbreviation"`
	IsPersonCityOrCompany bool   `json:"is_person_city_or_company"`
	IsProduct             bool   `json:"is_product"`
	LocaleGuess           string `gorm:"size:8" json:"locale_guess"`
	Category              string `gorm:"size:64" json:"category"`
}

// Collectable is the single yes/no the reward path cares about: a concrete,
// photographable thing that isn't an abbreviation and isn't a person, city
// or company (unless it is a product).
func (w *Word) Collectable() bool {
	return w.CanMakePicture && w.IsRealItem && !w.IsAbbreviation &&
		(!w.IsPersonCityOrCompany || w.IsProduct)
}
