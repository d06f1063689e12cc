// Package render serializes memdom snapshots to HTML.
//
// Text and attribute values are escaped. Void elements have no closing
// tag, boolean attributes render as their bare name, and event handlers
// become data-on-<event> marker attributes.
//
//	r := render.NewRenderer(render.Config{Pretty: true})
//	html, err := r.RenderSnapshot(container.Snapshot())
//
// HTML is the compact form used by tests and the devtools endpoint.
package render
