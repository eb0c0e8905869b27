package domain

// User is a stored account record. Password stays opaque text; hashing it
// is the operator's problem for now, which is why the data directory must
// not be world-readable.
type User struct {
	Email    Email
	Password string
	IsAdmin  bool
	Sync15   bool
}
