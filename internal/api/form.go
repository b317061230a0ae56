package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
)

// Form is a multipart body. Fields are written in key order so that request
// bodies are reproducible.
type Form struct {
	fields map[string]string
	files  []formFile
}

type formFile struct {
	field, name string
	content     []byte
}

func NewForm() *Form {
	return &Form{fields: make(map[string]string)}
}

// Set ignores empty values, matching a form that leaves optional inputs blank.
func (f *Form) Set(key, value string) *Form {
	if value != "" {
		f.fields[key] = value
	}
	return f
}

func (f *Form) File(field, name string, content []byte) *Form {
	if len(content) > 0 {
		f.files = append(f.files, formFile{field: field, name: name, content: content})
	}
	return f
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.WriteField(k, f.fields[k]); err != nil {
			return nil, "", fmt.Errorf("w.WriteField[%s]: %w", k, err)
		}
	}

	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.name)
		if err != nil {
			return nil, "", fmt.Errorf("w.CreateFormFile[%s]: %w", file.field, err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("part.Write: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("w.Close: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
