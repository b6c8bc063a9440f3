package run

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/srerickson/objpath"
)

type lsCmd struct {
	Path string `arg:"" name:"path" help:"Path of a file or directory (container/key)."`
	Long bool   `name:"long" short:"l" help:"Show size, modification time and integrity tag for each file."`
}

func (cmd *lsCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error {
	root, err := objpath.ParsePath(cmd.Path)
	if err != nil {
		return err
	}
	count := 0
	for info, err := range fsys.Walk(ctx, root) {
		if err != nil {
			return fmt.Errorf("listing %s: %w", root, err)
		}
		count++
		p := objpath.NewPath(root.Container(), info.Key)
		if cmd.Long {
			fmt.Fprintln(stdout, longEntry(p, info))
			continue
		}
		fmt.Fprintln(stdout, p)
	}
	if count == 0 {
		// empty directories are not an error
		exists, err := fsys.Exists(ctx, root)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("listing %s: %w", root, fs.ErrNotExist)
		}
	}
	return nil
}
