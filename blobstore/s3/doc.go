// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("songsim/"))
//	engine.SaveVectors(ctx, store)
//
// Pair the store with a DDBCommitStore when more than one builder may
// publish a new CURRENT pointer concurrently.
package s3
