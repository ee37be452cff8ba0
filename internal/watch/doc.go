// Package watch runs the pipeline for recordings dropped into a hot folder.
//
// The watcher subscribes to fsnotify events on the input directory, waits
// until a new file has stopped changing, then hands it to the batch driver.
// Files are processed one at a time in arrival order, matching the
// sequential batch semantics.
package watch
