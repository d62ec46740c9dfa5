package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Purchase is an equipment requisition. Once Delivered, its
// QuantityAvailable is the pool assignments reserve from.
type Purchase struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Item              string              `bson:"item" json:"item"`
	Category          string              `bson:"category" json:"category"`
	Quantity          int                 `bson:"quantity" json:"quantity"`
	QuantityAvailable int                 `bson:"quantityAvailable" json:"quantityAvailable"`
	UnitPrice         float64             `bson:"unitPrice" json:"unitPrice"`
	Supplier          string              `bson:"supplier" json:"supplier"`
	Status            string              `bson:"status" json:"status"`
	RequestedBy       primitive.ObjectID  `bson:"requestedBy" json:"requestedBy"`
	ApprovedBy        *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	Department        string              `bson:"department" json:"department"`
	RequestDate       time.Time           `bson:"requestDate" json:"requestDate"`
	RequiredDate      time.Time           `bson:"requiredDate" json:"requiredDate"`
	Justification     string              `bson:"justification" json:"justification"`
	Specifications    string              `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Description       string              `bson:"description,omitempty" json:"description,omitempty"`
	Attachments       []string            `bson:"attachments" json:"attachments"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TotalValue is quantity times unit price.
func (p *Purchase) TotalValue() float64 {
	return float64(p.Quantity) * p.UnitPrice
}
