// Package fileutil provides the file search engine used to discover test
// sources and feature files.
//
// The package is built around two layers:
//
// ScanDirectory walks a single root with ScanOptions (wildcard name pattern,
// extension list, recursion flag, depth limit, excluded directories) and
// returns the absolute paths of matched files together with the non-fatal
// errors collected along the way.
//
// FileSearchFilter and FileSearchFilterSet describe what to search for. A
// filter is validated when it is built: a missing root directory or an invalid
// pattern is a configuration error returned immediately, never skipped.
// Search runs every filter of a set and merges the results.
//
// # Usage
//
//	filter, err := fileutil.NewFilter("features", true, "*.feature")
//	if err != nil {
//	    return err
//	}
//	set, err := fileutil.NewFilterSet(filter)
//	if err != nil {
//	    return err
//	}
//	result, err := fileutil.Search(set, log)
//	for _, file := range result.Files {
//	    fmt.Println(file)
//	}
//
// # Error Tolerance
//
// Directories that cannot be listed (permission denied, removed while the walk
// is running, a filter root deleted after validation) are skipped. Each one is reported through the Warner passed to
// Search and recorded in SearchResult.Errors; partial results are returned.
//
// # Ordering
//
// Files reachable through several filters are reported once, keyed by absolute
// path. The returned slice is sorted, but callers must not rely on the order
// across platforms.
package fileutil
