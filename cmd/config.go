package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/covercare/covercare-cli/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after defaults, the config file and COVERCARE_* environment variables are applied.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

// effectiveConfig mirrors config.Config with YAML keys for display.
type effectiveConfig struct {
	Theme  string `yaml:"theme"`
	Submit struct {
		Mode     string `yaml:"mode"`
		Delay    string `yaml:"delay"`
		Timeout  string `yaml:"timeout"`
		SpoolDir string `yaml:"spool_dir"`
	} `yaml:"submit"`
	Device struct {
		CameraPermission string `yaml:"camera_permission"`
		CaptureCommand   string `yaml:"capture_command"`
		CaptureTimeout   string `yaml:"capture_timeout"`
		StartDir         string `yaml:"start_dir"`
	} `yaml:"device"`
	Log struct {
		File string `yaml:"file"`
	} `yaml:"log"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	var out effectiveConfig
	out.Theme = cfg.Theme
	out.Submit.Mode = cfg.Submit.Mode
	out.Submit.Delay = cfg.Submit.Delay.String()
	out.Submit.Timeout = cfg.Submit.Timeout.String()
	out.Submit.SpoolDir = cfg.Submit.SpoolDir
	out.Device.CameraPermission = cfg.Device.CameraPermission
	out.Device.CaptureCommand = cfg.Device.CaptureCommand
	out.Device.CaptureTimeout = cfg.Device.CaptureTimeout.String()
	out.Device.StartDir = cfg.Device.StartDir
	out.Log.File = cfg.Log.File

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
