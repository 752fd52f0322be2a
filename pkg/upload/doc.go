// Package upload stores dashboard data files.
//
// Uploads go over plain HTTP rather than the live WebSocket so large bodies
// never block a session's event loop. The handler accepts a multipart form
// with one or more "file" parts plus "username" and "file_name" fields, the
// same shape the dashboard's data page posts:
//
//	r.Mount("/api/v1/uploads", upload.Routes(store, upload.DefaultConfig()))
//
// Two stores are provided: DiskStore keeps files and JSON sidecar metadata
// in a local directory, S3Store keeps them in an S3-compatible bucket
// (including MinIO with path-style addressing).
//
// # Security
//
// Config.AllowedTypes is enforced against the type detected from the file
// content. Client-provided part headers like Content-Type are not trusted.
// IDs are UUIDs; anything else is rejected before touching storage.
package upload
