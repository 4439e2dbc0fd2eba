// Package publish uploads a finished day to object storage.
//
// A day consists of its manifest file and the per-day audio copies under
// by-date/<date>/. Objects land under <prefix>/<date>/ keeping their relative
// paths, so a consumer can fetch the manifest and resolve every audio entry
// next to it. The Google Cloud Storage implementation is the only uploader
// shipped; tests substitute an in-memory Uploader.
package publish
