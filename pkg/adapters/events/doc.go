// Package events provides event bus implementations.
//
// Implementations:
//   - redis: Redis Pub/Sub, for fan-out across several API instances
//   - memory: in-process, the default
package events
