package run

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/srerickson/objpath"
)

type rmCmd struct {
	Path string `arg:"" name:"path" help:"File or directory to remove (container/key). Directories are removed with everything under them; add a trailing '/' to remove only the directory when a file has the same name."`
}

func (cmd *rmCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error {
	p, err := objpath.ParsePath(cmd.Path)
	if err != nil {
		return err
	}
	err = fsys.Remove(ctx, p)
	var partial *objpath.PartialDeleteError
	if errors.As(err, &partial) {
		for _, key := range partial.Keys() {
			fmt.Fprintf(stderr, "not removed: %s: %v\n", objpath.NewPath(p.Container(), key), partial.Failed[key])
		}
	}
	return err
}
