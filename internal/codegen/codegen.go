// Package codegen turns the codes of a reference table into Go source:
// constants, typed accessors and Is predicates named exactly as the runtime
// accessor table names them.
package codegen

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"strconv"
	"text/template"

	"github.com/goliatone/go-refdata/refcache"
	"github.com/goliatone/go-refdata/registry"
	"github.com/goliatone/go-refdata/store"
	"github.com/jinzhu/inflection"
)

// Entry is one accessor derived from a code or a synonym.
type Entry struct {
	// Name is the accessor name, e.g. "InProgress".
	Name string
	// Code is the canonical code the accessor resolves to.
	Code string
	// Synonym is set when Name comes from a declared synonym.
	Synonym bool
}

// Spec describes one generated file.
type Spec struct {
	Package  string
	Type     string
	Table    string
	Codes    []string
	Synonyms map[string]string
}

// TypeName derives an exported Go type name from a table name:
// "order_statuses" becomes "OrderStatus".
func TypeName(table string) string {
	return refcache.AccessorName(inflection.Singular(table))
}

type codeRow struct {
	code string
}

func (r *codeRow) GetCode() string { return r.code }

// Entries runs codes and synonyms through a throwaway cache so generated
// names match the runtime ones, collisions included.
func Entries(ctx context.Context, typeName string, codes []string, synonyms map[string]string) ([]Entry, error) {
	rows := make([]*codeRow, len(codes))
	for i, code := range codes {
		rows[i] = &codeRow{code: code}
	}

	c, err := refcache.New[*codeRow](typeName, store.Funcs[*codeRow]{
		FindAllFn: func(ctx context.Context) ([]*codeRow, error) {
			return rows, nil
		},
	}, refcache.WithSynonyms(synonyms), refcache.WithRegistry(registry.New()))
	if err != nil {
		return nil, err
	}
	defer c.Close()

	table, err := c.Table(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, table.Len())
	for _, name := range table.Names() {
		code, _ := table.Code(name)
		_, synonym := c.Synonyms().ResolveName(name)
		entries = append(entries, Entry{Name: name, Code: code, Synonym: synonym})
	}
	return entries, nil
}

// codeName is replaced per file with the accessor name of a code.
var fileTemplate = template.Must(template.New("refdata").Funcs(template.FuncMap{
	"quote":    strconv.Quote,
	"codeName": func(string) string { return "" },
}).Parse(`// Code generated by refdata gen; DO NOT EDIT.
{{- if .Table}}
// Source table: {{.Table}}
{{- end}}

package {{.Package}}

import (
	"context"

	"github.com/goliatone/go-refdata/refcache"
)

// {{.Type}} codes.
const (
{{- range .Constants}}
	{{$.Type}}{{.Name}}Code = {{quote .Code}}
{{- end}}
)

// {{.Type}}Codes lists the codes present when this file was generated.
var {{.Type}}Codes = []string{
{{- range .Constants}}
	{{$.Type}}{{.Name}}Code,
{{- end}}
}
{{range .Entries}}
// {{$.Type}}{{.Name}} returns the {{.Code}} row{{if .Synonym}} (synonym){{end}}.
func {{$.Type}}{{.Name}}(ctx context.Context, c *refcache.Cache[*{{$.Type}}]) (*{{$.Type}}, bool, error) {
	return c.Lookup(ctx, {{$.Type}}{{codeName .Code}}Code)
}

// Is{{.Name}} reports whether r carries the {{.Code}} code.
func (r *{{$.Type}}) Is{{.Name}}() bool {
	return refcache.Canonical(r.GetCode()) == {{$.Type}}{{codeName .Code}}Code
}
{{end}}`))

type fileData struct {
	Spec
	Constants []Entry
	Entries   []Entry
}

// Generate renders and gofmts the file for spec.
func Generate(ctx context.Context, spec Spec) ([]byte, error) {
	if spec.Package == "" {
		return nil, fmt.Errorf("package name is required")
	}
	if spec.Type == "" {
		spec.Type = TypeName(spec.Table)
	}
	if spec.Type == "" {
		return nil, fmt.Errorf("type name is required")
	}

	entries, err := Entries(ctx, spec.Type, spec.Codes, spec.Synonyms)
	if err != nil {
		return nil, err
	}

	data := fileData{Spec: spec, Entries: entries}
	nameByCode := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.Synonym {
			data.Constants = append(data.Constants, e)
			nameByCode[e.Code] = e.Name
		}
	}

	if err := checkIdentifiers(spec.Type, data); err != nil {
		return nil, err
	}

	tmpl, err := fileTemplate.Clone()
	if err != nil {
		return nil, err
	}
	tmpl.Funcs(template.FuncMap{
		"codeName": func(code string) string { return nameByCode[code] },
	})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", spec.Type, err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", spec.Type, err)
	}
	return src, nil
}

// checkIdentifiers rejects files that would declare a top-level name twice,
// e.g. the accessor for code CODES and the code list, or the accessor for
// OPEN_CODE and the constant for OPEN.
func checkIdentifiers(typeName string, data fileData) error {
	declared := map[string]string{typeName + "Codes": "the code list"}
	declare := func(ident, what string) error {
		if other, dup := declared[ident]; dup {
			return &refcache.ConfigError{
				Type:    typeName,
				Name:    ident,
				Message: "generated for both " + other + " and " + what,
			}
		}
		declared[ident] = what
		return nil
	}

	for _, e := range data.Constants {
		if err := declare(typeName+e.Name+"Code", "the constant of "+e.Code); err != nil {
			return err
		}
	}
	for _, e := range data.Entries {
		what := "the accessor of " + e.Code
		if e.Synonym {
			what = "the accessor of synonym " + e.Name
		}
		if err := declare(typeName+e.Name, what); err != nil {
			return err
		}
	}
	return nil
}
