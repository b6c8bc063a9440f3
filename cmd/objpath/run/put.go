package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/srerickson/objpath"
)

type putCmd struct {
	File string `arg:"" name:"file" type:"existingfile" help:"Local file to upload."`
	Path string `arg:"" name:"path" help:"Destination (container/key). If it is a container or ends with '/', the file's name is added."`
}

func (cmd *putCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error {
	dst, err := objpath.ParsePath(cmd.Path)
	if err != nil {
		return err
	}
	if dst.IsRoot() || dst.TrailingSlash() {
		dst = dst.Join(filepath.Base(cmd.File))
	}
	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := fsys.WriteFile(ctx, dst, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d bytes\n", dst, n)
	return nil
}
