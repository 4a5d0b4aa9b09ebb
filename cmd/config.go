package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration after applying the file and the environment",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "output format: yaml or toml")
	configCmd.AddCommand(configShowCmd)
}

// secretKeys are masked when printing the configuration
var secretKeys = []string{"api_key", "protocols_io_access_token"}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	values := cfg.ToMap()
	for _, key := range secretKeys {
		if s, _ := values[key].(string); s != "" {
			values[key] = mask(s)
		}
	}

	var out []byte
	switch configFormat {
	case "yaml", "yml":
		out, err = yaml.Marshal(values)
	case "toml":
		out, err = toml.Marshal(values)
	default:
		return fmt.Errorf("unsupported format %q", configFormat)
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// mask keeps the last four characters of secrets longer than eight
func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
