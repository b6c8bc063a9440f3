package run_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carlmjohnson/be"
	"github.com/goccy/go-yaml"
	"github.com/srerickson/objpath/cmd/objpath/run"
	"github.com/srerickson/objpath/store/cloud"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
)

func testRun(args []string, expect func(err error, stdout, stderr string)) {
	ctx := context.Background()
	stdout := &strings.Builder{}
	stderr := &strings.Builder{}
	args = append([]string{"objpath"}, args...)
	err := run.CLI(ctx, args, stdout, stderr)
	expect(err, stdout.String(), stderr.String())
}

// testConfig writes a config file with file:// containers "src" and "dst"
// and returns its path.
func testConfig(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	containers := map[string]string{}
	for _, name := range []string{"src", "dst"} {
		dir := filepath.Join(tmp, name)
		be.NilErr(t, os.Mkdir(dir, 0755))
		containers[name] = "file://" + filepath.ToSlash(dir)
	}
	cfg, err := yaml.Marshal(map[string]any{
		"copy_attempts": 2,
		"containers":    containers,
	})
	be.NilErr(t, err)
	name := filepath.Join(tmp, "objpath.yaml")
	be.NilErr(t, os.WriteFile(name, cfg, 0644))
	return name
}

// localFiles creates files in a temporary directory
func localFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		be.NilErr(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestCLI(t *testing.T) {
	cfg := testConfig(t)
	local := localFiles(t, map[string]string{
		"hello.txt": "hello",
		"data.csv":  "a,b,c",
	})
	for _, args := range [][]string{
		{"put", filepath.Join(local, "hello.txt"), "src/docs/hello.txt"},
		{"put", filepath.Join(local, "data.csv"), "src/docs/"},
		{"put", filepath.Join(local, "data.csv"), "src/docs/nested/data.csv"},
	} {
		testRun(append(args, "--config", cfg), func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.True(t, strings.Contains(stdout, "bytes"))
		})
	}
	t.Run("ls", func(t *testing.T) {
		testRun([]string{"ls", "src/docs", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.Equal(t, "src/docs/data.csv\nsrc/docs/hello.txt\nsrc/docs/nested/data.csv\n", stdout)
		})
	})
	t.Run("ls long", func(t *testing.T) {
		testRun([]string{"ls", "-l", "src/docs/hello.txt", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.True(t, strings.Contains(stdout, "src/docs/hello.txt"))
			be.True(t, strings.Contains(stdout, "5 B"))
		})
	})
	t.Run("ls missing", func(t *testing.T) {
		testRun([]string{"ls", "src/nothing", "--config", cfg}, func(err error, _, stderr string) {
			be.Nonzero(t, err)
			be.True(t, strings.Contains(stderr, "not exist"))
		})
	})
	t.Run("stat", func(t *testing.T) {
		testRun([]string{"stat", "src/docs", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.True(t, strings.Contains(stdout, "directory: true"))
			be.True(t, strings.Contains(stdout, "file: false"))
		})
		testRun([]string{"stat", "src/docs/hello.txt", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.True(t, strings.Contains(stdout, "file: true"))
			be.True(t, strings.Contains(stdout, "size: 5"))
		})
		testRun([]string{"stat", "src/docs/hello.txt/", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.True(t, strings.Contains(stdout, "exists: false"))
		})
	})
	t.Run("etag", func(t *testing.T) {
		testRun([]string{"etag", "src/docs/hello.txt", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.Equal(t, md5hex("hello")+"\n", stdout)
		})
		testRun([]string{"etag", "src/docs", "--config", cfg}, func(err error, _, stderr string) {
			be.Nonzero(t, err)
			be.True(t, strings.Contains(stderr, "not a file"))
		})
	})
	t.Run("cat", func(t *testing.T) {
		testRun([]string{"cat", "src/docs/data.csv", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.Equal(t, "a,b,c", stdout)
		})
	})
	t.Run("cp", func(t *testing.T) {
		testRun([]string{"cp", "src/docs/hello.txt", "dst/", "--config", cfg}, func(err error, _, _ string) {
			be.NilErr(t, err)
		})
		testRun([]string{"etag", "dst/hello.txt", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.Equal(t, md5hex("hello")+"\n", stdout)
		})
	})
	t.Run("cp directory without recursive", func(t *testing.T) {
		testRun([]string{"cp", "src/docs", "dst/", "--config", cfg}, func(err error, _, _ string) {
			be.Nonzero(t, err)
		})
	})
	t.Run("cp recursive", func(t *testing.T) {
		testRun([]string{"cp", "-r", "--jobs", "2", "src/docs", "dst/backup/", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.Equal(t, 3, strings.Count(stdout, "->"))
		})
		testRun([]string{"ls", "dst/backup", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.Equal(t, "dst/backup/docs/data.csv\ndst/backup/docs/hello.txt\ndst/backup/docs/nested/data.csv\n", stdout)
		})
	})
	t.Run("rm", func(t *testing.T) {
		testRun([]string{"rm", "dst/backup", "--config", cfg}, func(err error, _, _ string) {
			be.NilErr(t, err)
		})
		testRun([]string{"stat", "dst/backup", "--config", cfg}, func(err error, stdout, _ string) {
			be.NilErr(t, err)
			be.True(t, strings.Contains(stdout, "exists: false"))
		})
		// removing a missing path is not an error
		testRun([]string{"rm", "dst/backup", "--config", cfg}, func(err error, _, _ string) {
			be.NilErr(t, err)
		})
	})
}

func TestMetricsFile(t *testing.T) {
	cfg := testConfig(t)
	local := localFiles(t, map[string]string{"a.txt": "a"})
	metricsFile := filepath.Join(t.TempDir(), "objpath.prom")
	testRun([]string{"put", filepath.Join(local, "a.txt"), "src/a.txt", "--config", cfg, "--metrics-file", metricsFile}, func(err error, _, _ string) {
		be.NilErr(t, err)
	})
	b, err := os.ReadFile(metricsFile)
	be.NilErr(t, err)
	be.True(t, strings.Contains(string(b), `objpath_store_operations_total{operation="put",status="success"} 1`))
}

func TestConfigCmd(t *testing.T) {
	cfg := testConfig(t)
	testRun([]string{"config", "--config", cfg, "--endpoint", "http://localhost:9000", "--path-style"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.True(t, strings.Contains(stdout, "endpoint: http://localhost:9000"))
		be.True(t, strings.Contains(stdout, "path_style: true"))
		be.True(t, strings.Contains(stdout, "copy_attempts: 2"))
		be.True(t, strings.Contains(stdout, "src: file://"))
	})
}

func TestCLIErrors(t *testing.T) {
	t.Run("missing config file", func(t *testing.T) {
		testRun([]string{"ls", "src/x", "--config", filepath.Join(t.TempDir(), "missing.yaml")}, func(err error, _, stderr string) {
			be.Nonzero(t, err)
			be.True(t, strings.Contains(stderr, "config"))
		})
	})
	t.Run("bad config file", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "bad.yaml")
		be.NilErr(t, os.WriteFile(name, []byte("containers: [1, 2"), 0644))
		testRun([]string{"ls", "src/x", "--config", name}, func(err error, _, _ string) {
			be.Nonzero(t, err)
		})
	})
	t.Run("missing argument", func(t *testing.T) {
		testRun([]string{"cp", "src/x"}, func(err error, _, stderr string) {
			be.Nonzero(t, err)
			be.True(t, strings.Contains(stderr, "dst"))
		})
	})
	t.Run("invalid path", func(t *testing.T) {
		testRun([]string{"etag", "/key", "--config", testConfig(t)}, func(err error, _, stderr string) {
			be.Nonzero(t, err)
			be.True(t, strings.Contains(stderr, "missing container"))
		})
	})
}

func TestCLIMkdir(t *testing.T) {
	store := cloud.New(map[string]*blob.Bucket{"mem": memblob.OpenBucket(nil)})
	t.Cleanup(func() { be.NilErr(t, store.Close()) })
	run.SetStore(t, store)
	local := localFiles(t, map[string]string{"hello.txt": "hello"})

	testRun([]string{"mkdir", "mem/a/b"}, func(err error, _, _ string) {
		be.NilErr(t, err)
	})
	testRun([]string{"stat", "mem/a/b"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.True(t, strings.Contains(stdout, "exists: true"))
		be.True(t, strings.Contains(stdout, "directory: true"))
		be.True(t, strings.Contains(stdout, "file: false"))
	})
	testRun([]string{"stat", "mem/a"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.True(t, strings.Contains(stdout, "directory: true"))
	})
	testRun([]string{"ls", "mem/a"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.Equal(t, "", stdout)
	})
	testRun([]string{"put", filepath.Join(local, "hello.txt"), "mem/a/b/"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.Equal(t, "mem/a/b/hello.txt: 5 bytes\n", stdout)
	})
	testRun([]string{"stat", "mem/a/b/hello.txt"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.True(t, strings.Contains(stdout, "file: true"))
		be.True(t, strings.Contains(stdout, "size: 5"))
		be.True(t, strings.Contains(stdout, "etag: "+md5hex("hello")))
	})
	testRun([]string{"cat", "mem/a/b/hello.txt"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.Equal(t, "hello", stdout)
	})
	testRun([]string{"rm", "mem/a"}, func(err error, _, _ string) {
		be.NilErr(t, err)
	})
	testRun([]string{"stat", "mem/a/b"}, func(err error, stdout, _ string) {
		be.NilErr(t, err)
		be.True(t, strings.Contains(stdout, "exists: false"))
	})
}
