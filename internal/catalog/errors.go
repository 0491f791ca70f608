package catalog

import "errors"

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("catalog: not found")
	// ErrAlreadySold is returned when selling an item that is already sold.
	ErrAlreadySold = errors.New("catalog: item already sold")
	// ErrCategoryExists is returned when a category with the same name exists.
	ErrCategoryExists = errors.New("catalog: category already exists")
	// ErrInvalidItem marks payloads that violate the insert contract.
	ErrInvalidItem = errors.New("catalog: invalid item")
)
