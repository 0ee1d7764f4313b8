// Package handlers implements the HTTP API over the page engine:
// importing files, listing and mutating the page collection, driving the
// selection model, fetching thumbnails through the render pipeline, and
// streaming collection changes as Server-Sent Events. Health, readiness,
// version and liveness probes live here too.
package handlers
