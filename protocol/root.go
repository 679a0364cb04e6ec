package protocol

import (
	"fmt"
	"path/filepath"

	"github.com/datazip-inc/deltalake/constants"
	"github.com/datazip-inc/deltalake/utils"
	"github.com/datazip-inc/deltalake/utils/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string
	tablePath  string
	logLevel   string
	noSave     bool
	timeout    int64 // timeout in seconds

	commands = []*cobra.Command{}
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "deltalake",
	Short: "root command",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// set global variables
		if !noSave && configPath != "" {
			viper.Set(constants.ConfigFolder, filepath.Dir(configPath))
		}
		if logLevel != "" {
			viper.Set(constants.LogLevel, logLevel)
		}

		// logger uses CONFIG_FOLDER
		logger.Init()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'deltalake --help' to display usage guide", args[0])
		}

		return nil
	},
}

// CreateRootCommand wires the subcommands into RootCmd.
func CreateRootCommand() *cobra.Command {
	if !RootCmd.HasSubCommands() {
		RootCmd.AddCommand(commands...)
	}
	return RootCmd
}

func init() {
	commands = append(commands, inspectCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "", "Config describing the table and its storage")
	RootCmd.PersistentFlags().StringVarP(&tablePath, "table", "", "", "Path of a table on the local filesystem, used when --config is not passed")
	RootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "", "(Optional) Log level: debug, info, warn or error")
	RootCmd.PersistentFlags().BoolVarP(&noSave, "no-save", "", false, "(Optional) Flag to skip writing log files next to the config")
	RootCmd.PersistentFlags().Int64VarP(&timeout, "timeout", "", -1, "(Optional) Timeout to override the default load timeout (in seconds)")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
