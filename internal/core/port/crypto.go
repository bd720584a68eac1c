package port

// PasswordHasher abstracts the password hashing primitive so the algorithm
// choice stays pluggable.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}
