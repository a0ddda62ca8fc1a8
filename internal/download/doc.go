// Package download drains discovered episodes from the registry and fetches
// their audio to the storage root.
//
// A Run claims episodes one at a time with the registry's conditional
// update, so multiple workers (or an overlapping daemon run) never download
// the same episode twice. Audio streams to a temp file that is renamed into
// place only on success; a crash mid-transfer leaves a .part file and an
// untouched final path. Failures feed the registry's retry accounting.
package download
