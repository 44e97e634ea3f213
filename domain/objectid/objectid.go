// Package objectid generates and validates entity identifiers.
//
// Identifiers are 24-character hex MongoDB ObjectIDs for every store backend,
// so ids minted against sqlite stay valid if the data moves to Mongo.
package objectid

import "go.mongodb.org/mongo-driver/bson/primitive"

// New returns a fresh identifier. Identifiers minted by one process sort in
// creation order.
func New() string {
	return primitive.NewObjectID().Hex()
}

// Valid reports whether s is a structurally valid identifier.
func Valid(s string) bool {
	return primitive.IsValidObjectID(s)
}

// Parse validates s and returns its canonical lowercase form. Stores match
// ids exactly, so callers look up the returned value, not s.
func Parse(s string) (string, bool) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return "", false
	}
	return oid.Hex(), true
}
