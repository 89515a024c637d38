package template

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed templates
var embedded embed.FS

// Embedded returns the recipes compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		// The directory is part of the binary, so this cannot happen.
		panic(err)
	}
	return sub
}

// Open returns the recipe filesystem for folder, or the embedded recipes
// when folder is empty.
func Open(folder string) (fs.FS, error) {
	if folder == "" {
		return Embedded(), nil
	}
	info, err := os.Stat(folder)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: folder, Err: fs.ErrInvalid}
	}
	return os.DirFS(folder), nil
}
