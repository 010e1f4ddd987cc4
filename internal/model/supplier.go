package model

type Supplier struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
	Address string `gorm:"type:text" json:"address"`
}
