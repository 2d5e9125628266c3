package identity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered account. At least one of Phone or Email is set;
// PasswordHash always holds a bcrypt digest, never plaintext.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Phone        string        `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Email        string        `bson:"email,omitempty" json:"email,omitempty"`
	Name         string        `bson:"name,omitempty" json:"name,omitempty"`
	PasswordHash string        `bson:"password" json:"-"`
	Verified     bool          `bson:"verified" json:"verified"`
	CreatedAt    time.Time     `bson:"createdDate" json:"createdDate"`
}
