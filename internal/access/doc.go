// Package access holds the request authorization middleware that sits
// between authentication and the handlers.
//
// Gate middleware fetch the resource named by a URL parameter, compare the
// caller with the party that owns the resource and either stop the request
// (404 when the resource does not exist, 403 when it belongs to someone
// else) or store the fetched records in the request context so handlers do
// not load them again.
//
// IdentityResolver.Optional attaches an identity when a valid credential is
// present and otherwise lets the request through anonymously.
package access
