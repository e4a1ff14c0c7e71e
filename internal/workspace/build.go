// Package workspace implements §4.3: discovering .firm files (from a
// directory, a single file, or an in-memory blob for tests), parsing each,
// and merging the results into one BuildResult with path rebasing and
// duplicate detection applied across the whole set.
//
// Grounded on the teacher's internal/model.LoadGridsRecursively: discover
// files with fsutil.FindFilesByExtension, parse each with a shared parser,
// accumulate into one aggregate, log via ctxlog. Locals/variables blocks
// have no analogue here since .firm has no expression language to resolve
// against them.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"

	"github.com/go-firm/firmgraph/internal/ctxlog"
	"github.com/go-firm/firmgraph/internal/dsl"
	"github.com/go-firm/firmgraph/internal/entity"
	"github.com/go-firm/firmgraph/internal/fsutil"
	"github.com/go-firm/firmgraph/internal/fullid"
	"github.com/go-firm/firmgraph/internal/schema"
	"github.com/go-firm/firmgraph/internal/value"
)

// BuildResult is the aggregate output of a workspace load: every schema
// validated entity found, and the schema registry they were validated
// against (§4.3).
type BuildResult struct {
	Entities []*entity.Entity
	Schemas  *schema.Registry
}

type fileSource struct {
	relDir   string // file's directory, relative to the workspace root
	filename string
	src      string
}

// LoadDir recursively discovers and parses every *.firm file under root.
func LoadDir(ctx context.Context, root string) (*BuildResult, BuildErrors, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("discovering .firm files", "root", root)

	files, err := fsutil.FindFilesByExtension(root, ".firm")
	if err != nil {
		return nil, nil, &IoError{Path: root, Cause: err}
	}
	sort.Strings(files)
	if len(files) == 0 {
		logger.Warn("no .firm files found in workspace", "root", root)
	}

	sources := make([]fileSource, 0, len(files))
	for _, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			return nil, nil, &IoError{Path: f, Cause: err}
		}
		relFile, err := filepath.Rel(root, f)
		if err != nil {
			relFile = f
		}
		sources = append(sources, fileSource{relDir: filepath.Dir(relFile), filename: f, src: string(raw)})
	}

	result, errs := build(ctx, sources)
	return result, errs, nil
}

// LoadFile loads a single .firm file as a one-file workspace rooted at the
// file's own directory.
func LoadFile(ctx context.Context, path string) (*BuildResult, BuildErrors, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &IoError{Path: path, Cause: err}
	}
	result, errs := build(ctx, []fileSource{{relDir: ".", filename: path, src: string(raw)}})
	return result, errs, nil
}

// LoadSource builds a workspace from an in-memory blob, for tests that
// don't want to touch disk.
func LoadSource(ctx context.Context, filename, src string) (*BuildResult, BuildErrors) {
	return build(ctx, []fileSource{{relDir: ".", filename: filename, src: src}})
}

type rawEntity struct {
	decl   *dsl.EntityDecl
	relDir string
}

func build(ctx context.Context, sources []fileSource) (*BuildResult, BuildErrors) {
	logger := ctxlog.FromContext(ctx)

	var errs BuildErrors
	var rawEntities []rawEntity
	registry := schema.NewRegistry()

	for _, src := range sources {
		file, perrs := dsl.Parse(src.filename, src.src)
		for _, pe := range perrs {
			errs = append(errs, pe)
		}
		if file == nil {
			continue
		}
		for _, sd := range file.Schemas {
			compiled := schema.Compile(sd)
			if err := registry.Register(compiled, sd.Range); err != nil {
				errs = append(errs, err)
			}
		}
		for _, ed := range file.Entities {
			rawEntities = append(rawEntities, rawEntity{decl: ed, relDir: src.relDir})
		}
	}

	seen := make(map[string]hcl.Range, len(rawEntities))
	entities := make([]*entity.Entity, 0, len(rawEntities))
	for _, re := range rawEntities {
		fid := fullid.FullId{Type: re.decl.Type, ID: re.decl.ID}
		key := fid.String()
		if firstRange, ok := seen[key]; ok {
			errs = append(errs, &DuplicateEntity{FullID: key, First: firstRange, Second: re.decl.Range})
			continue
		}
		seen[key] = re.decl.Range

		fields := make([]entity.Field, len(re.decl.Fields))
		for i, fd := range re.decl.Fields {
			v := fd.Value
			if v.Kind() == value.PathKind {
				v = rebasePathValue(v, re.relDir)
			}
			fields[i] = entity.Field{ID: fd.Name, Value: v}
		}
		e := &entity.Entity{FullID: fid, Fields: fields, Span: re.decl.Range}

		validated, viol := registry.Apply(e)
		if viol.HasErrors() {
			for _, v := range viol {
				errs = append(errs, v)
			}
			continue
		}
		entities = append(entities, validated)
	}

	logger.Debug("workspace build finished", "entities", len(entities), "errors", len(errs))
	return &BuildResult{Entities: entities, Schemas: registry}, errs
}

// rebasePathValue rewrites a relative Path value so it is stored relative
// to the workspace root instead of the declaring file's directory (§4.3).
// Absolute paths pass through unchanged.
func rebasePathValue(v value.Value, relDir string) value.Value {
	raw, _ := v.AsString()
	if filepath.IsAbs(raw) {
		return v
	}
	joined := filepath.ToSlash(filepath.Clean(filepath.Join(relDir, raw)))
	return value.NewPath(joined)
}
