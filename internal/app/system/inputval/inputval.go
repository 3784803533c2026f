// internal/app/system/inputval/inputval.go
// Package inputval holds the shape checks applied to input before any
// state is touched.
package inputval

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	snowflake  = regexp.MustCompile(`^[0-9]{15,21}$`)
	sixDigits  = regexp.MustCompile(`^[0-9]{6}$`)
)

// IsValidEmail reports whether s has the local@domain.tld shape.
func IsValidEmail(s string) bool {
	return emailShape.MatchString(s)
}

// IsSnowflake reports whether s looks like a Discord id.
func IsSnowflake(s string) bool {
	return snowflake.MatchString(s)
}

// IsCode reports whether s is a six-digit verification code.
func IsCode(s string) bool {
	return sixDigits.MatchString(s)
}

// IsValidObjectID reports whether s is a hex Mongo ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
