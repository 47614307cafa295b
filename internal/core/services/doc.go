// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services never import adapters; they are wired to concrete stores,
// archive sources and normalisers by the command that starts them.
package services
