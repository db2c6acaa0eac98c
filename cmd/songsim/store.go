package main

import (
	"context"
	"fmt"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/blobstore/minio"
	"github.com/hupe1980/songsim/blobstore/s3"
)

// openStore connects to the configured blob store.
func openStore(ctx context.Context, cfg StoreConfig) (blobstore.BlobStore, error) {
	switch cfg.Type {
	case "local":
		return blobstore.NewLocalStore(cfg.Path), nil
	case "s3":
		return openS3(ctx, cfg)
	case "minio":
		client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minio.NewStore(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func openS3(ctx context.Context, cfg StoreConfig) (blobstore.BlobStore, error) {
	store, err := s3.New(ctx, cfg.Bucket, s3.WithPrefix(cfg.Prefix), s3.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	if cfg.DynamoDBTable == "" {
		return store, nil
	}

	var cfgFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		cfgFns = append(cfgFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, cfgFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	baseURI := "s3://" + path.Join(cfg.Bucket, cfg.Prefix)
	return s3.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, baseURI), nil
}
