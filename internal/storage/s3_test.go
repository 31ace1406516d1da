//go:build integration

package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/skylane-ai/aerocontext/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(ctx context.Context, t *testing.T, endpoint string) (*DocumentSource, *s3.Client) {
	cfg := DocumentSourceConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "aerocontext-test",
		Prefix:          "documents/",
		UsePathStyle:    true,
	}

	source, err := NewDocumentSource(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, source.EnsureBucket(ctx))

	// Raw client for seeding test objects
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	require.NoError(t, err)
	raw := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.UsePathStyle = true })

	return source, raw
}

func putObject(ctx context.Context, t *testing.T, raw *s3.Client, key, body string) {
	_, err := raw.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String("aerocontext-test"),
		Key:    aws.String(key),
		Body:   bytes.NewReader([]byte(body)),
	})
	require.NoError(t, err)
}

func TestDocumentSource_ListAndFetch(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	source, raw := newTestSource(ctx, t, rc.Endpoint())

	putObject(ctx, t, raw, "documents/single.json",
		`{"id":"doc-1","display_name":"Wake Turbulence","content":"Apply separation minima."}`)
	putObject(ctx, t, raw, "documents/batch.json",
		`[{"id":"doc-2","display_name":"A","content":"a"},{"id":"doc-3","display_name":"B","content":"b"}]`)
	putObject(ctx, t, raw, "documents/readme.txt", "not a document")
	putObject(ctx, t, raw, "other/stray.json", `{"id":"stray"}`)

	keys, err := source.ListKeys(ctx)
	require.NoError(t, err)
	// Only JSON files under the prefix
	assert.ElementsMatch(t, []string{"documents/single.json", "documents/batch.json"}, keys)

	docs, err := source.FetchDocuments(ctx, "documents/single.json")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "Wake Turbulence", docs[0].DisplayName)

	docs, err = source.FetchDocuments(ctx, "documents/batch.json")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-2", docs[0].ID)
	assert.Equal(t, "doc-3", docs[1].ID)
}

func TestDocumentSource_FetchDocuments_InvalidJSON(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	source, raw := newTestSource(ctx, t, rc.Endpoint())

	putObject(ctx, t, raw, "documents/broken.json", `{"id":`)

	_, err := source.FetchDocuments(ctx, "documents/broken.json")
	assert.Error(t, err)
}
