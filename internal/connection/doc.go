// Package connection implements the real-time transport.
//
// The transport:
//   - Holds one WebSocket connection (gorilla/websocket) with ping/pong heartbeat
//   - Maps every close or error to a close code and reason
//   - Reconnects with exponential backoff driven by a reconnect.Policy
//   - Reports connect, disconnect, close and retry events to an Observer
package connection
