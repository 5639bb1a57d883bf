// Package discovery locates the monthly base directory and, per company, the
// source A and source B exports inside it.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrBaseNotFound means none of the base directory templates exists for the period.
	ErrBaseNotFound = errors.New("pasta base não encontrada")
	// ErrCompanyDirNotFound means the company report folder does not exist.
	ErrCompanyDirNotFound = errors.New("pasta da empresa não encontrada")
	// ErrSourceFilesNotFound means one of the sources has no file in the company folder.
	ErrSourceFilesNotFound = errors.New("arquivos das fontes não encontrados")
)

// DefaultCompanyDir is the company report folder relative to the base directory.
const DefaultCompanyDir = "{company}/ESCRITA FISCAL/RELATORIO RPA - {company}"

// XLSXSubdir is scanned for converted copies alongside the company folder.
const XLSXSubdir = "XLSX"

// Year extracts YYYY from a MM-YYYY period; malformed periods yield "".
func Year(period string) string {
	parts := strings.Split(period, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// ExpandBase substitutes {year} and {period} in a base directory template.
func ExpandBase(template, period string) string {
	r := strings.NewReplacer("{year}", Year(period), "{period}", period)
	return filepath.FromSlash(r.Replace(template))
}

// ResolveBase returns the first existing directory among the expanded templates.
func ResolveBase(templates []string, period string) (string, error) {
	for _, tmpl := range templates {
		dir := ExpandBase(tmpl, period)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: período %s, %d modelo(s) testado(s)", ErrBaseNotFound, period, len(templates))
}

// SourceRule selects the files of one source inside a company folder.
type SourceRule struct {
	// Keyword é procurado no nome do arquivo (sem diferenciar maiúsculas) quando Pattern está vazio.
	Keyword string
	// Pattern é um glob (filepath.Match) aplicado ao nome em minúsculas.
	Pattern string
}

func (r SourceRule) matches(name string, exts []string) bool {
	lower := strings.ToLower(name)
	if r.Pattern != "" {
		ok, err := filepath.Match(strings.ToLower(r.Pattern), lower)
		return err == nil && ok && hasExt(lower, exts)
	}
	if r.Keyword == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(name), strings.ToUpper(r.Keyword)) && hasExt(lower, exts)
}

func hasExt(lowerName string, exts []string) bool {
	ext := filepath.Ext(lowerName)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Finder resolves company folders and their source files.
type Finder struct {
	CompanyDir string
	A, B       SourceRule
}

// Files lists what was found for one company.
type Files struct {
	Company string
	Dir     string
	// Folder é o nome real da pasta quando a busca aproximada foi usada.
	Folder  string
	Fuzzy   bool
	SourceA []string
	SourceB []string
}

// Find returns the source files of a company. Both sources must have at least one file.
func (f Finder) Find(base, company string) (Files, error) {
	dir, folder, fuzzy, err := f.companyDir(base, company)
	if err != nil {
		return Files{}, err
	}
	out := Files{Company: company, Dir: dir, Folder: folder, Fuzzy: fuzzy}
	out.SourceA, out.SourceB, err = f.scan(dir)
	if err != nil {
		return out, err
	}
	if len(out.SourceA) == 0 || len(out.SourceB) == 0 {
		return out, fmt.Errorf("%w: %s (A: %d, B: %d)", ErrSourceFilesNotFound, dir, len(out.SourceA), len(out.SourceB))
	}
	return out, nil
}

func (f Finder) template() string {
	if f.CompanyDir == "" {
		return DefaultCompanyDir
	}
	return f.CompanyDir
}

func (f Finder) expand(base, company string) string {
	return filepath.Join(base, filepath.FromSlash(strings.ReplaceAll(f.template(), "{company}", company)))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// companyDir tenta o nome exato e, se não existir, a pasta irmã de nome mais próximo.
func (f Finder) companyDir(base, company string) (dir, folder string, fuzzy bool, err error) {
	dir = f.expand(base, company)
	if isDir(dir) {
		return dir, company, false, nil
	}
	if match, ok := closestFolder(base, company); ok {
		if alt := f.expand(base, match); isDir(alt) {
			return alt, match, true, nil
		}
	}
	return "", "", false, fmt.Errorf("%w: %s", ErrCompanyDirNotFound, dir)
}

func closestFolder(base, company string) (string, bool) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", false
	}
	want := foldName(company)
	if want == "" {
		return "", false
	}

	byKey := make(map[string]string)
	var keys []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		key := foldName(e.Name())
		if key == "" {
			continue
		}
		if key == want {
			return e.Name(), true
		}
		if _, dup := byKey[key]; !dup {
			byKey[key] = e.Name()
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", false
	}

	// closestmatch compara em minúsculas; a chave devolvida mantém a caixa original.
	cm := closestmatch.New(keys, []int{3, 4})
	match := cm.Closest(strings.ToLower(want))
	if match == "" || !sharesTokens(want, match) {
		return "", false
	}
	return byKey[match], true
}

// sharesTokens reports whether every token of want appears in got.
func sharesTokens(want, got string) bool {
	have := make(map[string]bool)
	for _, tok := range strings.Fields(got) {
		have[tok] = true
	}
	for _, tok := range strings.Fields(want) {
		if !have[tok] {
			return false
		}
	}
	return true
}

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

func foldName(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func (f Finder) scan(dir string) (a, b []string, err error) {
	var candA, candB []string
	collect := func(d string, subdir bool) error {
		entries, err := os.ReadDir(d)
		if err != nil {
			if subdir && errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("erro ao listar %s: %w", d, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, "~$") {
				continue
			}
			if f.A.matches(name, accepted(f.A, subdir)) {
				candA = append(candA, filepath.Join(d, name))
			}
			if f.B.matches(name, accepted(f.B, subdir)) {
				candB = append(candB, filepath.Join(d, name))
			}
		}
		return nil
	}
	if err := collect(dir, false); err != nil {
		return nil, nil, err
	}
	if err := collect(filepath.Join(dir, XLSXSubdir), true); err != nil {
		return nil, nil, err
	}
	return pickFiles(candA), pickFiles(candB), nil
}

var (
	folderExts  = []string{".xls", ".xlsx"}
	patternExts = []string{".xls", ".xlsx", ".csv"}
	subdirExts  = []string{".xlsx"}
)

// accepted returns the extensions a rule may pick; only explicit patterns reach csv exports.
func accepted(rule SourceRule, subdir bool) []string {
	switch {
	case subdir:
		return subdirExts
	case rule.Pattern != "":
		return patternExts
	default:
		return folderExts
	}
}

// pickFiles deduplica pelo nome sem extensão, preferindo .xlsx, e ordena.
func pickFiles(files []string) []string {
	chosen := make(map[string]string)
	for _, path := range files {
		name := filepath.Base(path)
		stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		if _, ok := chosen[stem]; ok && strings.ToLower(filepath.Ext(name)) != ".xlsx" {
			continue
		}
		chosen[stem] = path
	}
	out := make([]string, 0, len(chosen))
	for _, path := range chosen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
