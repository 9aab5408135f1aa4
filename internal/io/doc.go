// Package ioutils provides file system utilities for tlc-downloader.
//
// # File Operations
//
//	// Ensure the output directory exists
//	err := ioutils.EnsureDir("./data")
//
//	// Skip work already on disk
//	if ioutils.Exists(path) {
//	    return
//	}
//
//	// Write a download target, removing it again on failure
//	f, err := ioutils.CreateFile(path)
//	...
//	_ = ioutils.RemoveFile(path)
package ioutils
