// Package file provides the TOML-backed configuration store.
// Settings live in ~/.notemill/config.toml and are read through
// dot-notation keys such as "notion.token" or "media.max_width".
package file
