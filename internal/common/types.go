package common

// PageNo identifies a page within the database file. Pages are numbered
// from 1; page N lives at byte offset (N-1)*pageSize. 0 is never a valid
// page number.
type PageNo uint32

// DefaultPageSize is the page size used when a pager is opened without an
// explicit override.
const DefaultPageSize uint32 = 4096
