// Package fakes provides test doubles for the clients credential stores talk
// to.
//
// Each fake implements the client seam of one store so that the store can be
// tested without the platform service behind it. Fakes are written by hand
// (not generated) to give precise control over test behavior.
//
// Usage:
//
//	fake := fakes.NewFakeKeyringClient()
//	fake.Secrets["myapp"] = map[string]string{"alice": "secret123"}
//	builder := native.NewBuilder(native.WithClient(fake))
//	// Test credentials built by builder...
package fakes
