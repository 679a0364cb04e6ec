package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/datazip-inc/deltalake/utils/logger"
)

// S3RangeReader reads byte ranges of an object without downloading it whole,
// which is what the checkpoint decoder needs for its footer and column chunks.
type S3RangeReader struct {
	ctx    context.Context
	client S3API
	bucket string
	key    string
	size   int64
}

func NewS3RangeReader(ctx context.Context, client S3API, bucket, key string, size int64) *S3RangeReader {
	return &S3RangeReader{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		key:    key,
		size:   size,
	}
}

func (r *S3RangeReader) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("invalid offset: %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	endByte := off + int64(len(p)) - 1
	if endByte >= r.size {
		endByte = r.size - 1
	}

	// inclusive on both ends
	rangeHeader := fmt.Sprintf("bytes=%d-%d", off, endByte)
	logger.Debugf("S3 Range Request: %s for %s", rangeHeader, r.key)

	result, err := r.client.GetObject(r.ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read range %s: %w", rangeHeader, err)
	}
	defer result.Body.Close()

	want := int(endByte - off + 1)
	n, err = io.ReadFull(result.Body, p[:want])
	if err != nil {
		return n, fmt.Errorf("failed to read response body: %w", err)
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *S3RangeReader) Size() int64 {
	return r.size
}

func (r *S3RangeReader) Close() error {
	return nil
}
