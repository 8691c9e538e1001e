package models

// University is a study destination students can apply against.
type University struct {
	BaseModel

	Name       string `gorm:"uniqueIndex;not null" json:"name"`
	Country    string `gorm:"index" json:"country"`
	Ranking    int    `json:"ranking"`
	TuitionFee int64  `json:"tuition_fee"`
}
