// Package server implements the EmberChat relay: a room-based real-time
// message relay served over WebSocket.
//
// The relay holds a registry of named rooms, tracks which connection belongs
// to which room, fans messages and membership events out to room members,
// retains a short rolling history per room, and periodically reaps ephemeral
// rooms that have gone idle, migrating their members back to the lobby.
//
// The implementation is organized into specialized files for the registry,
// membership, relay facade, reaper, hub, clients, configuration, and HTTP
// plumbing to keep the codebase maintainable and testable as the project
// grows.
package server
