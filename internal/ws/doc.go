// Package ws pushes domain events to connected extension surfaces over
// WebSocket: session counts for the badge, duplicate warnings, toasts,
// and reorder rejections. The event set is closed; the hub drops
// anything else rather than inventing new message kinds on the wire.
package ws
