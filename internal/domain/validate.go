package domain

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate checks the `validate` tags of an entity. Column bounds are mirrored
// in the tags so oversized values fail before reaching the database.
func Validate(v interface{}) error {
	return validate.Struct(v)
}
