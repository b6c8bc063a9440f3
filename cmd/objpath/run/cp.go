package run

import (
	"context"
	"fmt"
	"io"

	"github.com/carlmjohnson/workgroup"
	"github.com/srerickson/objpath"
)

type cpCmd struct {
	Src       string `arg:"" name:"src" help:"Source file or, with --recursive, directory (container/key)."`
	Dst       string `arg:"" name:"dst" help:"Destination (container/key). If it is a container or ends with '/', the source's name is added."`
	Recursive bool   `name:"recursive" short:"r" help:"Copy all files under src to dst."`
	Jobs      int    `name:"jobs" short:"j" default:"4" help:"Number of concurrent copies with --recursive."`
}

func (cmd *cpCmd) Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error {
	src, err := objpath.ParsePath(cmd.Src)
	if err != nil {
		return err
	}
	dst, err := objpath.ParsePath(cmd.Dst)
	if err != nil {
		return err
	}
	if !cmd.Recursive {
		if err := fsys.Copy(ctx, src, dst); err != nil {
			return err
		}
		fmt.Fprintln(stdout, src, "->", dst)
		return nil
	}
	isDir, err := fsys.IsDir(ctx, src)
	if err != nil {
		return err
	}
	if !isDir {
		return fmt.Errorf("cp -r: %s is not a directory", src)
	}
	if dst.TrailingSlash() && !src.IsRoot() {
		dst = dst.Join(src.Name())
	}
	return copyTree(ctx, fsys, src, dst, cmd.Jobs, stdout)
}

type copyJob struct {
	from, to objpath.PathInfo
}

// copyTree copies every file under src to the same relative path under dst.
func copyTree(ctx context.Context, fsys *objpath.FS, src, dst objpath.PathInfo, jobs int, stdout io.Writer) error {
	if jobs < 1 {
		jobs = 1
	}
	var copies []copyJob
	for p, err := range fsys.WalkFiles(ctx, src.AsDir()) {
		if err != nil {
			return err
		}
		rel, ok := p.Rel(src)
		if !ok {
			return fmt.Errorf("unexpected path in walk of %s: %s", src, p)
		}
		copies = append(copies, copyJob{from: p, to: dst.Join(rel)})
	}
	if len(copies) == 0 {
		return nil
	}
	copyTask := func(job copyJob) (objpath.PathInfo, error) {
		return job.to, fsys.Copy(ctx, job.from, job.to)
	}
	// the manager runs in one goroutine
	copyMgr := func(job copyJob, to objpath.PathInfo, err error) ([]copyJob, error) {
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(stdout, job.from, "->", to)
		return nil, nil
	}
	return workgroup.Do(jobs, copyTask, copyMgr, copies...)
}
