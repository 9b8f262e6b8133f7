package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcgregorio/logger"
	"github.com/jcgregorio/slog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	vfs "github.com/twpayne/go-vfs"
	vfsafero "github.com/twpayne/go-vfsafero"
	xdg "github.com/twpayne/go-xdg/v3"

	"github.com/contrun/serconv/internal/serconv"
)

const (
	configName = "serconv"
	envPrefix  = "serconv"

	fromFormatKey = "from-format"
	toKey         = "to"
	verboseKey    = "verbose"

	defaultFromFormat = "toml"
	defaultTo         = "json"
)

// A Config represents the configuration of a single invocation.
type Config struct {
	FromFormat string
	To         string
	Verbose    bool

	fs     vfs.FS
	bds    *xdg.BaseDirectorySpecification
	v      *viper.Viper
	logger slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr logger.SyncWriter

	conversion *serconv.Conversion
}

// A configOption sets an option on a Config.
type configOption func(*Config)

func newConfig(options ...configOption) *Config {
	c := &Config{
		FromFormat: defaultFromFormat,
		To:         defaultTo,
		fs:         vfs.OSFS,
		v:          viper.New(),
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Config) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "serconv [FILES...]",
		Short:             "Convert serialization formats",
		Long:              "Converts serialization formats\n" + strings.Join(serconv.ConversionNames(), ", "),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.persistentPreRunRootE,
		Args:              cobra.ArbitraryArgs,
		RunE:              c.runRootCmd,
	}

	persistentFlags := rootCmd.PersistentFlags()
	persistentFlags.StringVarP(&c.FromFormat, fromFormatKey, "f", c.FromFormat, "From format")
	persistentFlags.StringVarP(&c.To, toKey, "t", c.To, "To format")

	rootCmd.SetIn(c.stdin)
	rootCmd.SetOut(c.stdout)
	rootCmd.SetErr(c.stderr)

	return rootCmd
}

// execute runs c with args, not including the program name.
func (c *Config) execute(args []string) error {
	rootCmd := c.newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func (c *Config) persistentPreRunRootE(cmd *cobra.Command, args []string) error {
	// An illegal conversion is reported even if the config file is invalid.
	configErr := c.readConfig(cmd.PersistentFlags())

	c.logger = logger.NewFromOptions(&logger.Options{
		SyncWriter:   c.stderr,
		IncludeDebug: c.Verbose,
	})

	conversion, err := serconv.LookupConversion(c.FromFormat, c.To)
	if err != nil {
		return err
	}
	if configErr != nil {
		return configErr
	}
	c.conversion = conversion
	c.logger.Debugf("conversion %s, %d file(s)", conversion, len(args))
	return nil
}

// readConfig merges the config file and the environment into c. Flags that
// were set explicitly take precedence over both. The config file is the only
// file read before the conversion is looked up.
func (c *Config) readConfig(flags *pflag.FlagSet) error {
	c.v.SetFs(vfsafero.NewAferoFS(c.fs))
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	c.v.SetDefault(verboseKey, c.Verbose)

	for _, key := range []string{fromFormatKey, toKey} {
		if err := c.v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return err
		}
	}

	if c.bds == nil {
		bds, err := xdg.NewBaseDirectorySpecification()
		if err != nil {
			return err
		}
		c.bds = bds
	}
	c.v.SetConfigName(configName)
	c.v.AddConfigPath(filepath.Join(c.bds.ConfigHome, configName))
	for _, configDir := range c.bds.ConfigDirs {
		c.v.AddConfigPath(filepath.Join(configDir, configName))
	}
	err := c.v.ReadInConfig()
	var configFileNotFoundErr viper.ConfigFileNotFoundError
	if errors.As(err, &configFileNotFoundErr) {
		err = nil
	}

	// Values from flags and the environment are kept when the config file
	// cannot be read.
	c.FromFormat = c.v.GetString(fromFormatKey)
	c.To = c.v.GetString(toKey)
	c.Verbose = c.v.GetBool(verboseKey)
	return err
}
