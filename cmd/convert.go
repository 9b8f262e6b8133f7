package cmd

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// An input is a document to convert. Inputs opened by serconv have a name;
// standard input does not.
type input struct {
	io.Reader
	name   string
	closer io.Closer
}

func (c *Config) runRootCmd(cmd *cobra.Command, args []string) (err error) {
	var inputs []*input
	defer func() {
		err = multierr.Append(err, closeInputs(inputs))
	}()

	inputs, err = c.openInputs(args)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := c.convertInput(in); err != nil {
			return err
		}
	}
	return nil
}

// openInputs opens every path in order, or returns standard input if there
// are no paths. If opening a path fails, the inputs already opened are
// returned with the error so that they can be closed.
func (c *Config) openInputs(paths []string) ([]*input, error) {
	if len(paths) == 0 {
		return []*input{{Reader: c.stdin}}, nil
	}
	inputs := make([]*input, 0, len(paths))
	for _, path := range paths {
		f, err := c.fs.Open(path)
		if err != nil {
			return inputs, err
		}
		inputs = append(inputs, &input{
			Reader: f,
			name:   path,
			closer: f,
		})
	}
	return inputs, nil
}

func (c *Config) convertInput(in *input) error {
	data, err := ioutil.ReadAll(in)
	if err != nil {
		return in.wrapError(err)
	}
	c.logger.Debugf("%s: read %d bytes", in, len(data))
	output, err := c.conversion.Convert(data)
	if err != nil {
		return in.wrapError(err)
	}

	if in.name == "" {
		c.logger.Debugf("writing %d bytes to standard output", len(output)+1)
		_, err := c.stdout.Write(append(output, '\n'))
		return err
	}

	targetPath := c.conversion.TargetPath(in.name)
	c.logger.Debugf("%s: writing %d bytes to %s", in.name, len(output), targetPath)
	return c.fs.WriteFile(targetPath, output, 0o666)
}

func (in *input) String() string {
	if in.name == "" {
		return "<stdin>"
	}
	return in.name
}

func (in *input) wrapError(err error) error {
	return fmt.Errorf("%s: %w", in, err)
}

// closeInputs closes every input that serconv opened.
func closeInputs(inputs []*input) error {
	var err error
	for _, in := range inputs {
		if in.closer != nil {
			err = multierr.Append(err, in.closer.Close())
		}
	}
	return err
}
