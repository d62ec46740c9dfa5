package models

import (
	"time"

	"military-logistics-api-server/internal/rbac"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Transfer struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Equipment         string              `bson:"equipment" json:"equipment"`
	Quantity          int                 `bson:"quantity" json:"quantity"`
	FromLocation      string              `bson:"fromLocation" json:"fromLocation"`
	ToLocation        string              `bson:"toLocation" json:"toLocation"`
	SourceBaseID      rbac.Base           `bson:"sourceBaseId" json:"sourceBaseId"`
	DestinationBaseID rbac.Base           `bson:"destinationBaseId" json:"destinationBaseId"`
	EquipmentID       *primitive.ObjectID `bson:"equipmentId,omitempty" json:"equipmentId,omitempty"`
	Reason            string              `bson:"reason" json:"reason"`
	TransportMethod   string              `bson:"transportMethod" json:"transportMethod"`
	Status            string              `bson:"status" json:"status"`
	RequestedBy       primitive.ObjectID  `bson:"requestedBy" json:"requestedBy"`
	ApprovedBy        *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ExpectedDate      time.Time           `bson:"expectedDate" json:"expectedDate"`
	ActualDate        *time.Time          `bson:"actualDate,omitempty" json:"actualDate,omitempty"`
	Description       string              `bson:"description,omitempty" json:"description,omitempty"`
	Attachments       []string            `bson:"attachments" json:"attachments"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}
