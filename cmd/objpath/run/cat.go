package run

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/srerickson/objpath"
)

type catCmd struct {
	Path string `arg:"" name:"path" help:"Path of a file (container/key)."`
}

func (cmd *catCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) (err error) {
	p, err := objpath.ParsePath(cmd.Path)
	if err != nil {
		return err
	}
	rc, err := fsys.Open(ctx, p)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rc.Close())
	}()
	if _, err := io.Copy(stdout, rc); err != nil {
		return fmt.Errorf("reading %s: %w", p, err)
	}
	return nil
}
