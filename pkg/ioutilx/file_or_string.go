package ioutilx

import (
	"fmt"
	"os"
	"strings"
)

var (
	OS       = InjectableOS{}
	IOReader = InjectableIOReader{}
)

// FileOrString is a flag value naming either a file on disk or an inline
// literal. Bytes prefers the file when one exists at that path.
type FileOrString string

func (f FileOrString) Bytes(statter Statter, reader FileReader) ([]byte, error) {
	value := string(f)

	stat, err := statter.Stat(value)
	if err != nil {
		return []byte(strings.ReplaceAll(value, "\\n", "\n")), nil
	}

	if stat.IsDir() {
		return nil, fmt.Errorf("path '%s' is a directory, not a file", value)
	}

	return reader.ReadFile(value)
}

type FileReader interface {
	ReadFile(string) ([]byte, error)
}

type InjectableIOReader struct{}

func (InjectableIOReader) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

type Statter interface {
	Stat(string) (os.FileInfo, error)
}

type InjectableOS struct{}

func (InjectableOS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
