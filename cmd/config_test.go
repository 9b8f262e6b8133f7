package cmd

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcgregorio/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vfs "github.com/twpayne/go-vfs"
	"github.com/twpayne/go-vfs/vfst"
	xdg "github.com/twpayne/go-xdg/v3"

	"github.com/contrun/serconv/internal/serconv"
)

type fauxSyncWriter struct {
	b bytes.Buffer
}

func (f *fauxSyncWriter) Write(p []byte) (int, error) {
	return f.b.Write(p)
}

func (f *fauxSyncWriter) Sync() error {
	return nil
}

func (f *fauxSyncWriter) String() string {
	return f.b.String()
}

func TestConfigPrecedence(t *testing.T) {
	for _, tc := range []struct {
		name     string
		root     interface{}
		env      map[string]string
		args     []string
		expected string
	}{
		{
			name:     "default",
			expected: "toml -> json",
		},
		{
			name: "config_file",
			root: map[string]interface{}{
				"/home/user/.config/serconv/serconv.toml": "from-format = \"json\"\nto = \"toml\"\n",
			},
			expected: "json -> toml",
		},
		{
			name: "yaml_config_file",
			root: map[string]interface{}{
				"/home/user/.config/serconv/serconv.yaml": "from-format: pickle\nto: yaml\n",
			},
			expected: "pickle -> yaml",
		},
		{
			name: "env_over_config_file",
			root: map[string]interface{}{
				"/home/user/.config/serconv/serconv.toml": "from-format = \"json\"\nto = \"toml\"\n",
			},
			env: map[string]string{
				"SERCONV_TO": "yaml",
			},
			expected: "json -> yaml",
		},
		{
			name: "flag_over_env",
			env: map[string]string{
				"SERCONV_FROM_FORMAT": "json",
				"SERCONV_TO":          "yaml",
			},
			args:     []string{"--from-format", "yaml", "-t", "json"},
			expected: "yaml -> json",
		},
		{
			name:     "short_flags",
			args:     []string{"-f", "pickle", "-t", "toml"},
			expected: "pickle -> toml",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			root := tc.root
			if root == nil {
				root = map[string]interface{}{
					"/home/user": &vfst.Dir{Perm: 0o755},
				}
			}
			fs, cleanup, err := vfst.NewTestFS(root)
			require.NoError(t, err)
			defer cleanup()

			c := newTestConfig(fs)
			cmd := c.newRootCmd()
			require.NoError(t, cmd.ParseFlags(tc.args))
			require.NoError(t, c.persistentPreRunRootE(cmd, nil))
			assert.Equal(t, tc.expected, c.conversion.String())
		})
	}
}

func TestConfigInvalidConfigFile(t *testing.T) {
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/home/user/.config/serconv/serconv.json": "{",
	})
	require.NoError(t, err)
	defer cleanup()

	assert.Error(t, newTestConfig(fs).execute(nil))

	err = newTestConfig(fs).execute([]string{"-f", "xml"})
	var illegalConversionErr *serconv.IllegalConversionError
	assert.True(t, errors.As(err, &illegalConversionErr))
	assert.EqualError(t, err, "Illegal conversion: xml -> json")
}

func TestConfigVerbose(t *testing.T) {
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/home/user": &vfst.Dir{Perm: 0o755},
	})
	require.NoError(t, err)
	defer cleanup()

	stderr := &fauxSyncWriter{}
	stdout := &bytes.Buffer{}
	c := newTestConfig(fs,
		withStdin(strings.NewReader(`{"a": 1}`)),
		withStdout(stdout),
		withStderr(stderr),
	)
	require.NoError(t, c.execute([]string{"-f", "json", "-t", "yaml"}))
	assert.Contains(t, stderr.String(), "json -> yaml")
	assert.Equal(t, "a: 1\n\n", stdout.String())
}

func TestConfigQuiet(t *testing.T) {
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{
		"/home/user": &vfst.Dir{Perm: 0o755},
	})
	require.NoError(t, err)
	defer cleanup()

	stderr := &fauxSyncWriter{}
	c := newTestConfig(fs,
		withStdin(strings.NewReader("a = 1\n")),
		withStdout(&bytes.Buffer{}),
		withStderr(stderr),
		withVerbose(false),
	)
	require.NoError(t, c.execute(nil))
	assert.Empty(t, stderr.String())
}

func newTestConfig(fs vfs.FS, options ...configOption) *Config {
	return newConfig(append(
		[]configOption{
			withTestFS(fs),
			withTestUser("user"),
			withStderr(&fauxSyncWriter{}),
			withVerbose(true),
		},
		options...,
	)...)
}

func withStderr(stderr logger.SyncWriter) configOption {
	return func(c *Config) {
		c.stderr = stderr
	}
}

func withStdin(stdin io.Reader) configOption {
	return func(c *Config) {
		c.stdin = stdin
	}
}

func withStdout(stdout io.Writer) configOption {
	return func(c *Config) {
		c.stdout = stdout
	}
}

func withTestFS(fs vfs.FS) configOption {
	return func(c *Config) {
		c.fs = fs
	}
}

func withTestUser(username string) configOption {
	return func(c *Config) {
		homeDir := filepath.Join("/", "home", username)
		c.bds = &xdg.BaseDirectorySpecification{
			ConfigHome: filepath.Join(homeDir, ".config"),
			DataHome:   filepath.Join(homeDir, ".local"),
			CacheHome:  filepath.Join(homeDir, ".cache"),
			RuntimeDir: filepath.Join(homeDir, ".run"),
		}
	}
}

func withVerbose(verbose bool) configOption {
	return func(c *Config) {
		c.Verbose = verbose
	}
}
