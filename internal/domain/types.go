package domain

// Role names an actor class.
type Role string

const (
	RoleAnonymous  Role = "anonymous"
	RoleDispatcher Role = "dispatcher"
)

// Actor is the caller of an operation as resolved by the access gate.
type Actor struct {
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
	// RequesterToken is presented by anonymous requesters for self-service deletion.
	RequesterToken string `json:"-"`
}

// IsDispatcher reports whether the actor passed the access gate.
func (a Actor) IsDispatcher() bool {
	return a.Role == RoleDispatcher
}

// Anonymous returns an unauthenticated actor, optionally holding a requester token.
func Anonymous(requesterToken string) Actor {
	return Actor{Role: RoleAnonymous, RequesterToken: requesterToken}
}
