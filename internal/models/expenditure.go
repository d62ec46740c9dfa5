package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Expenditure struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category      string             `bson:"category" json:"category"`
	Amount        float64            `bson:"amount" json:"amount"`
	Description   string             `bson:"description" json:"description"`
	Department    string             `bson:"department" json:"department"`
	RequestedBy   primitive.ObjectID `bson:"requestedBy" json:"requestedBy"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentDate   time.Time          `bson:"paymentDate" json:"paymentDate"`
	ReceiptNumber string             `bson:"receiptNumber,omitempty" json:"receiptNumber,omitempty"`
	BudgetYear    int                `bson:"budgetYear" json:"budgetYear"`
	Quarter       int                `bson:"quarter" json:"quarter"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Attachments   []string           `bson:"attachments" json:"attachments"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
