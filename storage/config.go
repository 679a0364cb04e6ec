package storage

import (
	"fmt"
	"strings"

	"github.com/datazip-inc/deltalake/constants"
)

// S3Config holds the connection settings of an S3 or S3-compatible store.
type S3Config struct {
	BucketName      string `json:"bucket_name" validate:"required"`
	Region          string `json:"region"`
	PathPrefix      string `json:"path_prefix"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint"` // Optional: for S3-compatible services like MinIO

	RetryCount int `json:"retry_count" validate:"gte=0"`
	// StreamingEnabled reads checkpoints with ranged GETs instead of loading them whole.
	StreamingEnabled *bool `json:"streaming_enabled,omitempty"`
}

// Validate checks the settings that struct tags cannot express and fills defaults.
func (c *S3Config) Validate() error {
	if c.Endpoint == "" && c.Region == "" {
		return fmt.Errorf("region is required when not using custom endpoint")
	}

	// both credentials or neither; neither falls back to the default chain
	if (c.AccessKeyID != "" && c.SecretAccessKey == "") || (c.AccessKeyID == "" && c.SecretAccessKey != "") {
		return fmt.Errorf("access_key_id and secret_access_key must be provided together or both omitted")
	}

	if c.RetryCount <= 0 {
		c.RetryCount = constants.DefaultRetryCount
	}

	if c.StreamingEnabled == nil {
		enabled := true
		c.StreamingEnabled = &enabled
	}

	if c.PathPrefix != "" {
		c.PathPrefix = strings.Trim(c.PathPrefix, "/")
	}

	return nil
}
