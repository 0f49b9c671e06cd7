// Package notion implements the content source for Notion databases.
//
// The source reads published pages from a single configured database and
// retrieves each page's full block tree. It talks to the HTTP API
// directly, pinned to version 2025-09-03, the first version that moves
// querying from databases to data sources.
//
// # Architecture
//
// The package follows the driven port pattern defined in
// [driven.ContentSource]. It comprises the following components:
//
//   - Source: implements the port; owns data-source discovery and parsing
//   - Client: raw HTTP transport with retry and rate limiting
//   - RateLimiter: proactive throttle plus reactive Retry-After handling
//
// # Data Source Discovery
//
// Since 2025-09-03 a database is a container of data sources, and queries
// go to POST /v1/data_sources/{id}/query rather than the database itself.
// The source resolves its data source once per process:
//
//  1. GET /v1/databases/{id} and read the data_sources array
//  2. Zero entries is a hard error
//  3. Multiple entries follow the configured policy: take the first
//     (with a warning), or refuse to guess and fail
//
// The resolved ID is cached for the lifetime of the Source.
//
// # Query Semantics
//
// QueryPublished filters on the Published checkbox property and follows
// cursor pagination to exhaustion with pages of 100. Result pages that
// fail to parse are skipped with a warning rather than failing the query.
//
// # Block Tree Retrieval
//
// FetchBlockTree walks the block hierarchy breadth-unbounded using an
// explicit stack of pending nodes instead of recursion. Failures degrade
// rather than propagate: a failed subtree leaves that node with empty
// children, and a failed page of the top-level listing ends collection
// early with the blocks gathered so far. Only context cancellation
// surfaces as an error.
//
// # Rate Limiting
//
// Notion permits an average of three requests per second per integration.
// A token bucket throttles proactively at that rate; 429 responses push a
// shared resume time derived from the Retry-After header, which all
// subsequent requests respect before dispatch.
//
// # Error Handling
//
//   - 429 and 5xx responses: retried with exponential backoff
//   - Network errors: retried the same way
//   - 400, 401, 403, 404: returned immediately as [*APIError]
//   - Exhausted retries on 429: returned as [*RateLimitError]
package notion
