// Package browser defines the contract between the session manager and
// the browser it drives. The domain layer consumes this interface;
// concrete clients (extension bridge, test fakes) implement it.
package browser
