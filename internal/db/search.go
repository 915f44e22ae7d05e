package db

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. Fields is empty for key-only searches.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
