package domain

// FetchPage is the transient result of one remote page fetch. Pages are
// assembled by the fetcher and never persisted.
type FetchPage struct {
	Index       int
	StartOffset int
	Records     []RawRecord
	Err         error
}

// FetchResult is an assembled multi-page fetch: records in page-index order
// plus counts for the caller to judge completeness.
type FetchResult struct {
	Records        []RawRecord
	PagesAttempted int
	PagesFailed    int
}
