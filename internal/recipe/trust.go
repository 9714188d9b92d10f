package recipe

// TrustState tracks whether an override's parent-recipe trust info has
// been checked this invocation. The zero value means "not yet".
type TrustState int

const (
	TrustUntested TrustState = iota
	TrustVerified
	TrustFailed
)

func (s TrustState) String() string {
	switch s {
	case TrustVerified:
		return "verified"
	case TrustFailed:
		return "failed"
	default:
		return "untested"
	}
}
