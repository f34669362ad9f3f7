// Package ingest streams MediaWiki XML export dumps into (model,
// namespace, title, text) page tuples, transparently decompressing .bz2
// via compress/bzip2, grounded in
// original_source/wikimunge/mediawikisax.py's SAX handler — reworked here
// into Go's idiomatic streaming-token xml.Decoder shape rather than a
// callback-based SAX content handler.
package ingest

import (
	"compress/bzip2"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Page is one <page> element from the dump, or a synthesized redirect
// record (mirrors mediawikisax.py's model/ns/title/text tuple).
type Page struct {
	Model          string
	NamespaceID    string
	Namespace      string
	Title          string
	Text           string
	IsRedirect     bool
	RedirectTarget string
}

// Handler processes one decoded Page; returning an error aborts the stream.
type Handler func(Page) error

// Open returns a reader over path, transparently bzip2-decompressing if
// the extension is .bz2.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".bz2") {
		return struct {
			io.Reader
			io.Closer
		}{bzip2.NewReader(f), f}, nil
	}
	return f, nil
}

// Stream decodes a MediaWiki XML export from r, calling handler once per
// page in document order.
func Stream(r io.Reader, handler Handler) error {
	dec := xml.NewDecoder(r)

	namespaces := make(map[string]string) // key -> localized name
	var nsKey string
	var inNamespaces bool

	var page *Page
	var redirectTitle string
	var captureText bool
	var buf strings.Builder

	startCapture := func() {
		captureText = true
		buf.Reset()
	}
	endCapture := func() string {
		captureText = false
		return buf.String()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("ingest: decoding dump: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "namespaces":
				inNamespaces = true
			case "namespace":
				if inNamespaces {
					nsKey = attrValue(t, "key")
					startCapture()
				}
			case "page":
				page = &Page{}
			case "redirect":
				if page != nil {
					redirectTitle = attrValue(t, "title")
				}
			case "ns", "title", "model", "text":
				if page != nil {
					startCapture()
				}
			}

		case xml.CharData:
			if captureText {
				buf.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "namespaces":
				inNamespaces = false
			case "namespace":
				if inNamespaces {
					namespaces[nsKey] = endCapture()
				}
			case "ns":
				if page != nil {
					key := endCapture()
					page.NamespaceID = key
					page.Namespace = namespaces[key]
				}
			case "title":
				if page != nil {
					page.Title = endCapture()
				}
			case "model":
				if page != nil {
					page.Model = endCapture()
				}
			case "text":
				if page != nil {
					page.Text = endCapture()
				}
			case "page":
				if page != nil {
					if redirectTitle != "" {
						page.IsRedirect = true
						page.RedirectTarget = redirectTitle
						page.Model = "redirect"
						page.Text = redirectTitle
					}
					if err := handler(*page); err != nil {
						return err
					}
					page = nil
					redirectTitle = ""
				}
			}
		}
	}

	return nil
}

func attrValue(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
