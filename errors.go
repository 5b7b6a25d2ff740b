package regtree

import "fmt"

/*
InsufficientDataError is returned when a tree is grown from fewer rows than
twice the minimum leaf size, so not even the root could be split.
*/
type InsufficientDataError struct {
	Rows        int
	MinLeafSize int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows cannot fill two leaves of at least %d rows", e.Rows, e.MinLeafSize)
}

/*
InvalidParameterError is returned when a growth parameter has a value that
cannot be used.
*/
type InvalidParameterError struct {
	Name   string
	Value  int
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s = %d: %s", e.Name, e.Value, e.Reason)
}
