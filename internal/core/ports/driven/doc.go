// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - ContentSource: Queries posts and fetches block trees from the remote source
//   - CacheStore: Watermark and media-path persistence across runs
//   - MediaFetcher: Localises remote media references
//   - Renderer: Produces site files from populated posts
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or renderer package
package driven
