package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/srerickson/objpath"
)

type statCmd struct {
	Path string `arg:"" name:"path" help:"Path to inspect (container/key)."`
}

func (cmd *statCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error {
	p, err := objpath.ParsePath(cmd.Path)
	if err != nil {
		return err
	}
	isDir, err := fsys.IsDir(ctx, p)
	if err != nil {
		return err
	}
	info, err := fsys.Stat(ctx, p)
	if err != nil && !errors.Is(err, objpath.ErrNotFile) {
		return err
	}
	fmt.Fprintln(stdout, "path:", p)
	fmt.Fprintln(stdout, "exists:", isDir || info != nil)
	fmt.Fprintln(stdout, "directory:", isDir)
	fmt.Fprintln(stdout, "file:", info != nil)
	if info != nil {
		fmt.Fprintln(stdout, "size:", info.Size)
		fmt.Fprintln(stdout, "modified:", info.ModTime.UTC().Format(time.RFC3339))
		fmt.Fprintln(stdout, "etag:", info.ETag)
	}
	return nil
}
