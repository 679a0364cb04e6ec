package protocol

import (
	"context"
	"fmt"
	"strings"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/storage"
	"github.com/datazip-inc/deltalake/utils"
	"github.com/go-playground/validator/v10"
)

// Config describes where the table to inspect lives.
type Config struct {
	TablePath string                `json:"table_path" validate:"required"`
	Storage   constants.StorageType `json:"storage"`
	S3        *storage.S3Config     `json:"s3,omitempty" validate:"required_if=Storage s3"`
}

var validate = validator.New()

// Validate fills defaults and checks the configuration.
func (c *Config) Validate() error {
	if c.Storage == "" {
		c.Storage = constants.LocalStorage
	}
	c.Storage = constants.StorageType(strings.ToLower(string(c.Storage)))
	if !utils.ExistInArray(constants.StorageTypes, c.Storage) {
		return fmt.Errorf("unsupported storage type %q, expected one of %v", c.Storage, constants.StorageTypes)
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %s", err)
	}

	if c.Storage == constants.S3Storage {
		if err := c.S3.Validate(); err != nil {
			return fmt.Errorf("invalid s3 config: %s", err)
		}
		c.TablePath = strings.Trim(c.TablePath, "/")
	}
	return nil
}

// OpenStore connects to the configured storage. The config must be validated.
func (c *Config) OpenStore(ctx context.Context) (storage.ObjectStore, error) {
	switch c.Storage {
	case constants.LocalStorage:
		return storage.NewLocalStore(), nil
	case constants.MemoryStorage:
		return storage.NewMemoryStore(), nil
	case constants.S3Storage:
		return storage.NewS3Store(ctx, c.S3)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", c.Storage)
	}
}
