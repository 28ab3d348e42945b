package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/zeromem/internal/ir"
)

// InputFile is one decoded compiler input and the file it came from.
type InputFile struct {
	Path  string
	Input ir.CompilerInput
}

// LoadError represents an error that occurred while loading input files.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// isInputFile reports whether path has an extension the loader decodes.
func isInputFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// FindInputFiles expands paths into input files. Files are taken as given
// whatever their extension; directories are walked for .json, .yaml and
// .yml files in lexical order.
func FindInputFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: p, Message: "no such file or directory"}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: p, Message: err.Error()}
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isInputFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Path: p, Message: err.Error()}
		}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no input files found in %s", strings.Join(paths, ", "))}
	}
	return files, nil
}

// LoadInput decodes one compiler input. .yaml and .yml files are YAML;
// anything else is JSON.
func LoadInput(path string) (ir.CompilerInput, error) {
	var input ir.CompilerInput

	data, err := os.ReadFile(path)
	if err != nil {
		return input, &LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error()}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &input)
	default:
		err = json.Unmarshal(data, &input)
	}
	if err != nil {
		return input, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}
	}
	return input, nil
}

// LoadInputs expands paths and decodes every file, failing on the first
// error.
func LoadInputs(paths []string) ([]InputFile, error) {
	files, err := FindInputFiles(paths)
	if err != nil {
		return nil, err
	}

	out := make([]InputFile, 0, len(files))
	for _, path := range files {
		input, err := LoadInput(path)
		if err != nil {
			return nil, err
		}
		out = append(out, InputFile{Path: path, Input: input})
	}
	return out, nil
}

// failLoad reports a loader error through f.
func failLoad(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Path == "" {
			return f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.Path+": "+loadErr.Message,
			map[string]string{"path": loadErr.Path})
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}
