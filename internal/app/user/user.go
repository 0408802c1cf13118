/*
Package user defines the identity shape shared between the chat core, the HTTP
handlers, and the persistence layer.
*/
package user

// User is the authenticated identity attached to a transport session. The auth
// gate resolves it exactly once, at connection time, before any event reaches
// the chat core.
type User struct {

	// ID is the stable, opaque identifier for the account.
	ID string `json:"_id"`

	// Name is the display name embedded into broadcast messages.
	Name string `json:"name"`

	// Username is the login handle. Omitted from broadcasts.
	Username string `json:"username,omitempty"`

	// Avatar is the URL of the user's avatar, when one was uploaded.
	Avatar string `json:"avatar,omitempty"`
}
