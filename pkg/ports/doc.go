// Package ports defines the interfaces between the application core and
// its adapters: the event bus used for live fan-out and the metrics
// collector.
package ports
