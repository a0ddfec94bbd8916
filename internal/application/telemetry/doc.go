// Package telemetry implements acceptance of accelerometer payloads.
//
// A payload is any JSON value. The service checks that it parses and is not
// empty, renders the indented echo returned to the client, and announces the
// sample on the event bus for live consumers. Nothing is stored.
package telemetry
