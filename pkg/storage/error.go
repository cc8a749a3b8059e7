package storage

// NotFoundError is returned when a key doesn't exist in the store.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return "blob not found"
	}

	return "blob not found: " + e.Key
}
