// Package extract defines the data exchanged with the extraction service:
// requests, responses with their entities and events, and the helpers the
// UI uses to filter, count and order them.
package extract
