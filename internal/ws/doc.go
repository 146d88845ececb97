// Package ws provides WebSocket connection handling and session-addressed
// message routing for browser tabs running the Strudel player.
//
// The package implements:
//   - Client: One live browser connection with a serialized write path
//   - Manager: Owns the live connection set and the session-code binding table
//   - Handler: Upgrades HTTP connections and demultiplexes inbound frames
//
// Key behaviors:
//   - Session codes address exactly one connection; rebinding is last-writer-wins
//   - Disconnect cleanup runs on every exit path of a connection's receive loop
//   - Inbound frames are dispatched by their "type" field; undecodable frames
//     are logged and discarded without disturbing the receive loop
package ws
