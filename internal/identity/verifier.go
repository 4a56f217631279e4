package identity

import "golang.org/x/crypto/bcrypt"

// HashPassword returns an opaque bcrypt verifier string. Callers must
// never assume a specific algorithm or attempt to parse the verifier;
// it is only ever compared via VerifyPassword.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches the opaque verifier.
func VerifyPassword(verifier, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(verifier), []byte(password)) == nil
}
