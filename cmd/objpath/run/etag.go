package run

import (
	"context"
	"fmt"
	"io"

	"github.com/srerickson/objpath"
)

type etagCmd struct {
	Path string `arg:"" name:"path" help:"Path of a file (container/key)."`
}

func (cmd *etagCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error {
	p, err := objpath.ParsePath(cmd.Path)
	if err != nil {
		return err
	}
	tag, err := fsys.GetETag(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tag)
	return nil
}
