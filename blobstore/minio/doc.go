// Package minio provides a blobstore.BlobStore for MinIO and other
// S3-compatible object stores.
//
//	client, _ := minio.New("localhost:9000", &minio.Options{...})
//	store := songminio.NewStore(client, "songsim", "prod/")
package minio
