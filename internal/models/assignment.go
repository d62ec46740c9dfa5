package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment puts a person on a duty and may reserve equipment from a
// delivered purchase.
type Assignment struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Personnel         primitive.ObjectID  `bson:"personnel" json:"personnel"`
	Title             string              `bson:"assignment" json:"assignment"`
	Unit              string              `bson:"unit" json:"unit"`
	Qty               int                 `bson:"qty" json:"qty"`
	Duties            []string            `bson:"duties" json:"duties"`
	Status            string              `bson:"status" json:"status"`
	AssignedBy        primitive.ObjectID  `bson:"assignedBy" json:"assignedBy"`
	ApprovedBy        *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	EquipmentPurchase *primitive.ObjectID `bson:"equipmentPurchase,omitempty" json:"equipmentPurchase,omitempty"`
	EquipmentQuantity int                 `bson:"equipmentQuantity" json:"equipmentQuantity"`
	Equipment         string              `bson:"equipment" json:"equipment"`
	EquipmentType     string              `bson:"equipmentType" json:"equipmentType"`
	Description       string              `bson:"description,omitempty" json:"description,omitempty"`
	Attachments       []string            `bson:"attachments" json:"attachments"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Reserves reports whether the assignment holds units of a purchase.
func (a *Assignment) Reserves() bool {
	return a.EquipmentPurchase != nil && a.EquipmentQuantity > 0
}
