package models

import "time"

// EquipmentStatus is informational and set by administrators; it is not derived from open tickets.
type EquipmentStatus string

const (
	EquipmentStatusNormal   EquipmentStatus = "Normal"
	EquipmentStatusInRepair EquipmentStatus = "In Repair"
	EquipmentStatusDisposed EquipmentStatus = "Disposed"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentStatusNormal, EquipmentStatusInRepair, EquipmentStatusDisposed:
		return true
	}
	return false
}

// Equipment is an asset record keyed by its human-readable asset number (the QR code payload).
type Equipment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	AssetNumber string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"assetNumber"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Type        string          `gorm:"type:varchar(128);index" json:"type"`
	Location    string          `gorm:"type:varchar(255)" json:"location"`
	Status      EquipmentStatus `gorm:"type:varchar(32);not null;default:'Normal'" json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Equipment) TableName() string {
	return "equipment"
}
