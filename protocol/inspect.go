package protocol

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/pkg/delta"
	"github.com/datazip-inc/deltalake/pkg/parser"
	"github.com/datazip-inc/deltalake/storage"
	"github.com/datazip-inc/deltalake/utils"
	"github.com/datazip-inc/deltalake/utils/logger"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	config *Config
	output io.Writer = os.Stdout
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Replay the transaction log of a table and print its current snapshot",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		switch {
		case configPath != "":
			config = &Config{}
			if err := utils.UnmarshalFile(configPath, config); err != nil {
				return err
			}
		case tablePath != "":
			config = &Config{TablePath: tablePath, Storage: constants.LocalStorage}
		default:
			return fmt.Errorf("--config or --table not passed")
		}
		return config.Validate()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		loadTimeout := utils.Ternary(timeout == -1, constants.DefaultLoadTimeout, time.Duration(timeout)*time.Second).(time.Duration)
		ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
		defer cancel()

		store, err := config.OpenStore(ctx)
		if err != nil {
			return err
		}

		snapshot, err := inspect(ctx, store, config.TablePath)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	},
}

func inspect(ctx context.Context, store storage.ObjectStore, tablePath string) (*delta.Snapshot, error) {
	logger.Infof("Loading delta lake table: %s", tablePath)
	snapshot, err := delta.Load(ctx, store, parser.NewParquetCheckpointDecoder(), tablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", tablePath, err)
	}
	return snapshot, nil
}
