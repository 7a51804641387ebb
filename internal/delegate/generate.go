package delegate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/cache"
	"martianoff/delegen/internal/logger"
)

const (
	headerLine   = "// Code generated by delegen. DO NOT EDIT."
	headerPrefix = "// input: "
)

// Header renders the comment block that starts every generated file.
func Header(fingerprint string) string {
	return headerLine + "\n" + headerPrefix + fingerprint + "\n"
}

// ReadFingerprint extracts the input fingerprint from generated text.
func ReadFingerprint(text string) (string, bool) {
	lines := strings.SplitN(text, "\n", 3)
	if len(lines) < 2 || lines[0] != headerLine || !strings.HasPrefix(lines[1], headerPrefix) {
		return "", false
	}
	fp := strings.TrimPrefix(lines[1], headerPrefix)
	return fp, cache.IsFingerprint(fp)
}

// Result reports what GenerateFile did.
type Result struct {
	Output  *Output
	Path    string
	Written bool
}

// GenerateFile reads the request at specPath, generates and writes the output
// to outPath. The file is left untouched when its content would not change.
func (g *Generator) GenerateFile(ctx context.Context, specPath, outPath string) (*Result, error) {
	request, err := os.ReadFile(specPath)
	if err != nil {
		return nil, delerr.NewIOError(delerr.Pos{}, specPath, errors.Wrap(err, "read request"))
	}
	out, err := g.Generate(ctx, string(request))
	if err != nil {
		var derr *delerr.Error
		if errors.As(err, &derr) && derr.Pos.File == "" && derr.Type() != delerr.TypeIO {
			return nil, derr.InFile(specPath)
		}
		return nil, err
	}

	content := []byte(Header(out.Fingerprint) + "\n" + out.Text)
	res := &Result{Output: out, Path: outPath}
	if existing, err := os.ReadFile(outPath); err == nil && bytes.Equal(existing, content) {
		logger.Debugw("output unchanged", "path", outPath)
		return res, nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, delerr.NewIOError(delerr.Pos{}, outPath, errors.Wrap(err, "create output directory"))
	}
	if err := os.WriteFile(outPath, content, 0o644); err != nil {
		return nil, delerr.NewIOError(delerr.Pos{}, outPath, errors.Wrap(err, "write output"))
	}
	res.Written = true
	logger.Infow("wrote forwarding implementations", "path", outPath, "interfaces", out.Interfaces)
	return res, nil
}

// Check reports whether the file at outPath was generated from the current
// inputs of the request at specPath.
func (g *Generator) Check(ctx context.Context, specPath, outPath string) error {
	request, err := os.ReadFile(specPath)
	if err != nil {
		return delerr.NewIOError(delerr.Pos{}, specPath, errors.Wrap(err, "read request"))
	}
	out, err := g.Generate(ctx, string(request))
	if err != nil {
		return err
	}
	existing, err := os.ReadFile(outPath)
	if err != nil {
		return delerr.NewIOError(delerr.Pos{}, outPath, errors.Wrap(err, "read output"))
	}
	fp, ok := ReadFingerprint(string(existing))
	if !ok {
		return errors.Newf("%s has no generator header", outPath)
	}
	return cache.Verify(outPath, out.Fingerprint, fp)
}
