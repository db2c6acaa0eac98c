// Package blobstore stores published index artifacts: merged text indexes,
// persisted vector stores and the CURRENT pointer naming the live version.
//
// BlobStore implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads through a read-only mmap
//   - MemoryStore: in-memory, for tests
//   - s3.Store and s3.DDBCommitStore: Amazon S3, optionally with DynamoDB
//     conditional writes for the CURRENT pointer
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
