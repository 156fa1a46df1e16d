package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/inkpress/vellum/internal/store"
)

const (
	// styleEntry is the designated entry sheet within the content tree.
	styleEntry = "sass/style.scss"
	// styleName keys the compiled artifact.
	styleName = "style"
	// styleRoute is where the aggregate is served.
	styleRoute = "style.css"
)

// compileStylesheets materializes the revision's style sources into a
// temporary directory mirroring their logical paths, compiles the entry
// sheet into one aggregate, and persists the artifact plus its route.
// The temporary tree is removed whether or not compilation succeeds.
// A revision with no style sources gets no artifact and no route.
func compileStylesheets(tx BuildTx, workDir string, rev int64) error {
	sources, err := tx.StyleSources(rev)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return nil
	}

	tmp, err := os.MkdirTemp(workDir, fmt.Sprintf("tmp-sass-%d-", rev))
	if err != nil {
		return fmt.Errorf("create sass work dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	for _, src := range sources {
		dest := filepath.Join(tmp, filepath.FromSlash(src.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("mkdir for %s: %w", src.Path, err)
		}
		if err := os.WriteFile(dest, src.Contents, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", src.Path, err)
		}
	}

	css, err := compileSCSS(filepath.Join(tmp, filepath.FromSlash(styleEntry)))
	if err != nil {
		return fmt.Errorf("compile %s: %w", styleEntry, err)
	}

	if err := tx.InsertStylesheet(rev, styleName, css); err != nil {
		return err
	}
	return tx.InsertRoute(&store.Route{
		Revision:  rev,
		RoutePath: styleRoute,
		Kind:      store.RouteStylesheet,
		Hash:      "",
		Path:      styleName,
	})
}

// importRe matches an @import statement naming one quoted sheet.
var importRe = regexp.MustCompile(`^\s*@import\s+["']([^"']+)["']\s*;\s*$`)

// compileSCSS flattens the entry sheet by recursively inlining @import
// statements. Imports resolve relative to the importing file, trying the
// name as written, with a .scss suffix, and as a _name.scss partial.
// A missing import or an import cycle is a compile error.
func compileSCSS(entry string) (string, error) {
	var out strings.Builder
	visited := make(map[string]bool)
	if err := inlineSheet(entry, visited, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

func inlineSheet(sheet string, visited map[string]bool, out *strings.Builder) error {
	if visited[sheet] {
		return fmt.Errorf("import cycle through %s", filepath.Base(sheet))
	}
	visited[sheet] = true
	defer delete(visited, sheet)

	data, err := os.ReadFile(sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(sheet), err)
	}

	for _, line := range strings.SplitAfter(string(data), "\n") {
		m := importRe.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			continue
		}
		target, err := resolveImport(filepath.Dir(sheet), m[1])
		if err != nil {
			return err
		}
		if err := inlineSheet(target, visited, out); err != nil {
			return err
		}
	}
	return nil
}

func resolveImport(dir, name string) (string, error) {
	candidates := []string{name}
	if !strings.HasSuffix(name, ".scss") {
		candidates = append(candidates, name+".scss")
	}
	base := filepath.Base(name)
	if !strings.HasPrefix(base, "_") {
		partial := filepath.Join(filepath.Dir(name), "_"+strings.TrimSuffix(base, ".scss")+".scss")
		candidates = append(candidates, partial)
	}
	for _, c := range candidates {
		p := filepath.Join(dir, filepath.FromSlash(c))
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("unresolved import %q", name)
}
