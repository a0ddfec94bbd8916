// Package websocket provides live streaming of accepted accelerometer samples.
package websocket
