package store

// User represents a student account identified by a username and a short
// access code. Only the bcrypt hash of the code is stored.
type User struct {
	Username  string
	CodeHash  string
	ID        int32
	CreatedTs int64
}

// FindUser specifies the conditions for finding a user.
type FindUser struct {
	ID       *int32
	Username *string
}
