package auth

// GuardDecision is the outcome of evaluating access to a protected
// destination.
type GuardDecision string

const (
	// DecisionAllow renders the protected content.
	DecisionAllow GuardDecision = "allow"
	// DecisionRequireAuth hands control to the authentication flow.
	DecisionRequireAuth GuardDecision = "require_auth"
	// DecisionForbidden is the not-authorized outcome for an authenticated
	// identity whose role is not permitted.
	DecisionForbidden GuardDecision = "forbidden"
)

// Evaluate decides whether a session may access a destination restricted to
// the given roles. A nil session always requires authentication. An empty
// role set admits any authenticated identity. Membership is an exact set
// check; there is no role hierarchy.
func Evaluate(sess *Session, required []Role) GuardDecision {
	if sess == nil {
		return DecisionRequireAuth
	}
	if len(required) == 0 {
		return DecisionAllow
	}
	for _, role := range required {
		if sess.Identity.Role == role {
			return DecisionAllow
		}
	}
	return DecisionForbidden
}
