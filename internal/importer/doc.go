// Package importer turns batches of PDF paths into collection pages.
// Files are probed for page counts in parallel, but their pages are
// appended to the collection strictly in the order the paths were given.
package importer
