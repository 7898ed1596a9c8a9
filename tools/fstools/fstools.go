// Package fstools provides a small reference tool set over an fs.FS stored
// in context: list a directory, read a file, write a file. It exists so
// cmd/agentcli has something concrete to register and so integration tests
// can exercise the full tool-call round trip against an in-memory
// filesystem instead of a stub.
package fstools

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bpowers/agentcore/schema"
	"github.com/bpowers/agentcore/tool"
)

type contextKey struct{}

// WithFS attaches an fs.FS to ctx for the tools in this package to operate
// against.
func WithFS(ctx context.Context, f fs.FS) context.Context {
	return context.WithValue(ctx, contextKey{}, f)
}

// FromContext retrieves the filesystem WithFS attached to ctx.
func FromContext(ctx context.Context) (fs.FS, error) {
	f, ok := ctx.Value(contextKey{}).(fs.FS)
	if !ok {
		return nil, fmt.Errorf("fstools: no filesystem in context")
	}
	return f, nil
}

func cleanRelative(p string) string {
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "."
	}
	return p
}

// FileInfo describes one directory entry. ReadDirTool does not return it;
// its Run reports each entry as a "kind\tname\tsize" text line.
type FileInfo struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
	Size  int64  `json:"size"`
}

// readDirArgs is the argument shape ReadDirTool advertises.
type readDirArgs struct {
	Path string `json:"path,omitzero" desc:"directory to list, relative to the root (defaults to \".\")"`
}

// ReadDirTool lists a directory's entries. It never requires approval since
// it only reads metadata.
type ReadDirTool struct{ tool.BaseTool }

func (ReadDirTool) Name() string        { return "read_dir" }
func (ReadDirTool) Description() string { return "Lists files and directories at the given path." }
func (ReadDirTool) Parameters() *schema.JSON {
	return schema.FromStruct(readDirArgs{})
}
func (ReadDirTool) RequiresApproval() bool { return false }
func (ReadDirTool) Display(args map[string]any) string {
	return fmt.Sprintf("list directory %v", args["path"])
}

func (ReadDirTool) Run(ctx context.Context, args map[string]any) (string, error) {
	fsys, err := FromContext(ctx)
	if err != nil {
		return "", err
	}

	dirPath := "."
	if p, ok := args["path"].(string); ok && p != "" {
		dirPath = cleanRelative(p)
	}

	entries, err := fs.ReadDir(fsys, dirPath)
	if err != nil {
		return "", fmt.Errorf("read_dir %s: %w", dirPath, err)
	}

	var b strings.Builder
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		kind := "file"
		if entry.IsDir() {
			kind = "dir"
		}
		fmt.Fprintf(&b, "%s\t%s\t%d\n", kind, entry.Name(), info.Size())
	}
	if b.Len() == 0 {
		return "(empty directory)", nil
	}
	return b.String(), nil
}

// readFileArgs is the argument shape ReadFileTool advertises.
type readFileArgs struct {
	FileName string `json:"fileName" desc:"path of the file to read, relative to the root"`
}

// ReadFileTool reads a file's full contents. It never requires approval.
type ReadFileTool struct{ tool.BaseTool }

func (ReadFileTool) Name() string        { return "read_file" }
func (ReadFileTool) Description() string { return "Reads the full contents of a file." }
func (ReadFileTool) Parameters() *schema.JSON {
	return schema.FromStruct(readFileArgs{})
}
func (ReadFileTool) RequiresApproval() bool { return false }
func (ReadFileTool) Display(args map[string]any) string {
	return fmt.Sprintf("read file %v", args["fileName"])
}

func (ReadFileTool) Run(ctx context.Context, args map[string]any) (string, error) {
	fsys, err := FromContext(ctx)
	if err != nil {
		return "", err
	}

	name, _ := args["fileName"].(string)
	name = cleanRelative(name)

	f, err := fsys.Open(name)
	if err != nil {
		return "", fmt.Errorf("read_file %s: %w", name, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read_file %s: %w", name, err)
	}
	return string(content), nil
}

// writeFileArgs is the argument shape WriteFileTool advertises.
type writeFileArgs struct {
	FileName string `json:"fileName" desc:"path of the file to write, relative to the root"`
	Content  string `json:"content" desc:"full contents to write"`
}

// fsWriter is satisfied by github.com/psanford/memfs.FS, which has no
// standard library interface of its own for mutation.
type fsWriter interface {
	WriteFile(path string, data []byte, perm os.FileMode) error
}

type fsMkdirAller interface {
	MkdirAll(path string, perm os.FileMode) error
}

// WriteFileTool overwrites (or creates) a file. Mutating the filesystem
// always requires approval.
type WriteFileTool struct{ tool.BaseTool }

func (WriteFileTool) Name() string        { return "write_file" }
func (WriteFileTool) Description() string { return "Writes content to a file, creating it if needed." }
func (WriteFileTool) Parameters() *schema.JSON {
	return schema.FromStruct(writeFileArgs{})
}
func (WriteFileTool) Display(args map[string]any) string {
	return fmt.Sprintf("write file %v", args["fileName"])
}

func (WriteFileTool) Run(ctx context.Context, args map[string]any) (string, error) {
	fsys, err := FromContext(ctx)
	if err != nil {
		return "", err
	}

	w, ok := fsys.(fsWriter)
	if !ok {
		return "", fmt.Errorf("write_file: filesystem is read-only")
	}

	name, _ := args["fileName"].(string)
	name = cleanRelative(name)
	content, _ := args["content"].(string)

	if dir := path.Dir(name); dir != "." && dir != "/" {
		if mk, ok := fsys.(fsMkdirAller); ok {
			if err := mk.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("write_file: mkdir %s: %w", dir, err)
			}
		}
	}

	if err := w.WriteFile(name, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write_file %s: %w", name, err)
	}
	return "ok", nil
}
