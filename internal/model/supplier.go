package model

type Supplier struct {
	BaseModel
	Name          string `gorm:"type:varchar(100);not null;index" json:"name"`
	ContactPerson string `gorm:"type:varchar(100)" json:"contact_person"`
	Email         string `gorm:"type:varchar(255)" json:"email"`
	Phone         string `gorm:"type:varchar(20)" json:"phone"`
	Address       string `gorm:"type:text" json:"address"`
	Active        bool   `gorm:"not null;default:true;index" json:"active"`
}
