package core

// RouteRule is the authorization metadata attached to a navigable destination.
// At most one of the two flags should be set; a rule carrying both is resolved
// by checking RequiresAuth first.
type RouteRule struct {
	RequiresAuth  bool
	RequiresGuest bool
}
