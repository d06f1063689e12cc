// Package vtest provides testing helpers for reconciler components.
//
// A Harness wires a reconciler to an in-memory render target on a manually
// driven scheduler, so a test controls exactly when work runs and how much
// time passes.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t)
//	    h.Render(vdom.H(Counter))
//	    vtest.ExpectContains(t, h, "0")
//
//	    h.Click("inc")
//	    vtest.ExpectContains(t, h, "1")
//	}
//
// # Render Assertions
//
// Assertions run against the HTML of the published tree:
//
//	vtest.ExpectElement(t, h, "button")
//	vtest.ExpectAttribute(t, h, "class", "btn-primary")
//	vtest.ExpectNotContains(t, h, "Error")
package vtest
