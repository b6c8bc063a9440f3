package run

import (
	"context"
	"io"

	"github.com/srerickson/objpath"
)

type mkdirCmd struct {
	Path string `arg:"" name:"path" help:"Directory to create (container/key)."`
}

func (cmd *mkdirCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error {
	p, err := objpath.ParsePath(cmd.Path)
	if err != nil {
		return err
	}
	return fsys.Makedirs(ctx, p)
}
