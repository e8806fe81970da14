package scaffold

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"
)

// setup.py is generated through a template with every metadata field rendered
// as a proper Python string literal. Metadata is client-supplied, so a name
// or description containing quotes or parens must not be able to break the
// generated file. strconv.Quote's escape set (backslash, double quote, \n,
// \t, \uXXXX) is a subset of Python's string-literal escapes, so its output
// is a valid Python literal too.
//
// Sub-packages are auto-discovered via find_packages() rather than listed
// from metadata, matching what the build toolchain expects.
var setupTmpl = template.Must(template.New("setup.py").Funcs(template.FuncMap{
	"py":     pyString,
	"pyList": pyList,
}).Parse(`from setuptools import setup, find_packages

setup(
    name={{py .Meta.Name}},
    version={{py .Meta.Version}},
    packages=find_packages(),
    install_requires={{pyList .Meta.InstallRequires}},
    author={{py .Meta.Author}},
    author_email={{py .Meta.AuthorEmail}},
    description={{py .Meta.Description}},
    long_description=open("README.md").read(),
    long_description_content_type="text/markdown",
    url={{py .SourceURL}},
    classifiers={{pyList .Meta.Classifiers}},
    python_requires={{py .Meta.PythonRequires}},
)
`))

type setupData struct {
	Meta      Metadata
	SourceURL string
}

func renderSetup(meta Metadata, sourceURL string) ([]byte, error) {
	var buf bytes.Buffer
	err := setupTmpl.Execute(&buf, setupData{Meta: meta, SourceURL: sourceURL})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pyString(s string) string {
	return strconv.Quote(s)
}

func pyList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = strconv.Quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
