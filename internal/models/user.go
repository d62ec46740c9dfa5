package models

import (
	"time"

	"military-logistics-api-server/internal/rbac"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User matches the document in the users collection.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Rank         string             `bson:"rank" json:"rank"`
	Role         rbac.Role          `bson:"role" json:"role"`
	Department   string             `bson:"department" json:"department"`
	Base         rbac.Base          `bson:"base" json:"base"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Principal is the identity the services act on behalf of.
func (u *User) Principal() *rbac.Principal {
	return &rbac.Principal{ID: u.ID.Hex(), Role: u.Role, Base: u.Base}
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
