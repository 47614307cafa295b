// Package file provides the TOML configuration store kept in the cassation
// config directory.
package file
