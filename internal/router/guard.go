package router

// SessionView is the slice of session state the guard consults.
type SessionView interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Allow    bool
	Redirect string // target path when !Allow
	Reason   string
}

// Guard decides whether a navigation may proceed.
type Guard struct{}

// Check evaluates the rules in order; the first match wins. Authentication
// is checked before the admin role so an anonymous visitor of an admin page
// lands on the login view, not on home.
func (Guard) Check(to Match, from *Match, s SessionView) Decision {
	authenticated := s != nil && s.IsAuthenticated()

	if to.Route.RequiresAuth && !authenticated {
		return Decision{Redirect: LoginPath, Reason: "authentication required"}
	}
	if to.Route.RequiresAdmin && (s == nil || !s.IsAdmin()) {
		return Decision{Redirect: HomePath, Reason: "administrator role required"}
	}
	if (to.Route.Name == NameLogin || to.Route.Name == NameRegister) && authenticated {
		return Decision{Redirect: HomePath, Reason: "already authenticated"}
	}
	return Decision{Allow: true}
}
