package jwt

import "github.com/golang-jwt/jwt"

// Payload holds the JWT claims that identify a SmartComms account. The server
// resolves every transport session and API call to a user identity through this
// payload before any chat event is processed.
type Payload struct {
	// StandardClaims carries the required JWT fields (Exp, Iat, Iss).
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the stable user identifier the session authenticates as.
	ID string `json:"id"`

	// Name is the display name embedded into real-time message broadcasts.
	Name string `json:"name"`
}
