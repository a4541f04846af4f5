package chat

// Identity is the caller identity bound to a connection for its
// lifetime. Exactly two variants exist; permission checks switch on
// the concrete type rather than testing a sentinel value.
type Identity interface {
	isIdentity()
}

type Authenticated struct {
	UserId   int
	Username string
}

type Anonymous struct{}

func (Authenticated) isIdentity() {}
func (Anonymous) isIdentity()     {}
