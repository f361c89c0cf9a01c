package services

import "errors"

// ErrNotFound is returned when a record does not exist. Mongo-backed
// services surface mongo.ErrNoDocuments instead; handlers map both to 404.
var ErrNotFound = errors.New("not found")

// ErrValidation wraps errors caused by missing or malformed input fields.
// Handlers map it to 400 with the wrapped message.
var ErrValidation = errors.New("validation failed")

// ErrAdminExists is returned when bootstrapping an admin whose email is
// already registered.
var ErrAdminExists = errors.New("admin already exists")
