package preflight

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/wikimg/internal/errors"
	"github.com/Aman-CERP/wikimg/internal/profiling"
)

// CheckInputFile checks that path is a readable regular file.
func (c *Checker) CheckInputFile(path string) CheckResult {
	result := CheckResult{
		Name:     "input_file",
		Details:  path,
		Required: true,
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s: %v", path, err)
		result.Err = errors.IOError(fmt.Sprintf("cannot open triples file %s", path), err).
			WithDetail("path", path).
			WithSuggestion("Pass the dump location with --images / --labels")
		return result
	}
	if info.IsDir() {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is a directory", path)
		result.Err = errors.ValidationError(result.Message, nil)
		return result
	}

	f, err := os.Open(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s: %v", path, err)
		result.Err = errors.IOError(fmt.Sprintf("cannot open triples file %s", path), err).
			WithDetail("path", path)
		return result
	}
	_ = f.Close()

	if info.Size() == 0 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s is empty", path)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (%s)", path, profiling.FormatBytes(uint64(info.Size())))
	return result
}
