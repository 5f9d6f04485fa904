package restmachinery

import "net/http"

// Filter is an interface to be implemented by components that can wrap one
// http.HandlerFunc with another that imposes some cross-cutting concern, such
// as authentication, before delegating to the original.
type Filter interface {
	// Decorate decorates one http.HandlerFunc with another
	Decorate(http.HandlerFunc) http.HandlerFunc
}
