// Copyright 2014 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/vdobler/hurl/httpclient"
	"github.com/vdobler/hurl/hurlfile"
	"github.com/vdobler/hurl/template"
	"github.com/vdobler/hurl/value"
)

// renderKV renders a KV's template Value against scope (spec §4.H step
// 3a: "Render request (templates, sections → URL/headers/body)").
func renderKV(kv hurlfile.KV, scope value.Scope) (string, string, error) {
	v, err := template.ApplyTemplateString(kv.Value, scope)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", kv.Key, err)
	}
	return kv.Key, v, nil
}

// buildRequest renders req against scope and produces the RequestSpec
// the httpclient adapter executes, grounded on ht.go's prepareRequest
// (multipart construction, @file: handling) generalized to the Hurl
// grammar's section set (spec §3, Request).
func buildRequest(req *hurlfile.Request, scope value.Scope, opt resolved, fileDir string) (httpclient.RequestSpec, error) {
	spec := httpclient.RequestSpec{
		Method:          req.Method,
		Header:          http.Header{},
		FollowRedirects: opt.Location,
		LocationTrusted: opt.LocationTrusted,
		MaxRedirects:    opt.MaxRedirects,
		Timeout:         opt.MaxTime,
		ConnectTimeout:  opt.ConnectTimeout,
		Insecure:        opt.Insecure,
		Compressed:      opt.Compressed,
		Verbose:         opt.Verbose,
	}

	rawURL, err := template.ApplyTemplateString(req.URL, scope)
	if err != nil {
		return spec, fmt.Errorf("url: %w", err)
	}

	if len(req.QueryStringParams) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return spec, fmt.Errorf("url: %w", err)
		}
		q := u.Query()
		for _, kv := range req.QueryStringParams {
			k, v, err := renderKV(kv, scope)
			if err != nil {
				return spec, fmt.Errorf("QueryStringParams: %w", err)
			}
			q.Add(k, v)
		}
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}
	spec.URL = rawURL

	for _, kv := range req.Headers {
		k, v, err := renderKV(kv, scope)
		if err != nil {
			return spec, fmt.Errorf("header: %w", err)
		}
		spec.Header.Add(k, v)
	}

	if req.BasicAuth != nil {
		user, err := template.ApplyTemplateString(req.BasicAuth.User, scope)
		if err != nil {
			return spec, fmt.Errorf("BasicAuth: %w", err)
		}
		pass, err := template.ApplyTemplateString(req.BasicAuth.Password, scope)
		if err != nil {
			return spec, fmt.Errorf("BasicAuth: %w", err)
		}
		spec.BasicUser, spec.BasicPassword = user, pass
	}

	for _, kv := range req.Cookies {
		k, v, err := renderKV(kv, scope)
		if err != nil {
			return spec, fmt.Errorf("Cookies: %w", err)
		}
		spec.Cookies = append(spec.Cookies, &http.Cookie{Name: k, Value: v})
	}

	switch {
	case len(req.FormParams) > 0:
		form := url.Values{}
		for _, kv := range req.FormParams {
			k, v, err := renderKV(kv, scope)
			if err != nil {
				return spec, fmt.Errorf("FormParams: %w", err)
			}
			form.Add(k, v)
		}
		spec.Body = []byte(form.Encode())
		if spec.Header.Get("Content-Type") == "" {
			spec.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

	case len(req.MultipartFormData) > 0:
		body, contentType, err := buildMultipart(req.MultipartFormData, scope, fileDir)
		if err != nil {
			return spec, fmt.Errorf("MultipartFormData: %w", err)
		}
		spec.Body = body
		spec.Header.Set("Content-Type", contentType)

	case req.Body != nil:
		b, err := buildBody(req.Body, scope, fileDir)
		if err != nil {
			return spec, fmt.Errorf("body: %w", err)
		}
		spec.Body = b
	}

	return spec, nil
}

func buildMultipart(fields []hurlfile.MultipartField, scope value.Scope, fileDir string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if f.FileName == "" {
			v, err := template.ApplyTemplateString(f.Value, scope)
			if err != nil {
				return nil, "", err
			}
			if err := w.WriteField(f.Name, v); err != nil {
				return nil, "", err
			}
			continue
		}
		part, err := w.CreatePart(partHeader(f))
		if err != nil {
			return nil, "", err
		}
		data, err := os.ReadFile(resolvePath(fileDir, f.FileName))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func partHeader(f hurlfile.MultipartField) (h map[string][]string) {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Name, f.FileName)},
		"Content-Type":        {ct},
	}
}

// buildBody materializes the bytes of a request/response Body literal
// (spec §3, Body variants).
func buildBody(b *hurlfile.Body, scope value.Scope, fileDir string) ([]byte, error) {
	switch b.Kind {
	case hurlfile.BodyJSON:
		// JSON literal is "templated structurally": every {{expr}}
		// occurrence is substituted in place, same as any other
		// templated text (spec §3, Body variants).
		s, err := template.ApplyTemplateString(b.Raw, scope)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case hurlfile.BodyXML:
		// XML literal is explicitly non-templated (spec §3).
		return []byte(b.Raw), nil
	case hurlfile.BodyMultiline:
		if b.Lang == hurlfile.LangHex || b.Lang == hurlfile.LangBase64 {
			// hex/base64-tagged multiline bodies carry already-decoded
			// bytes (spec §3, Body multiline language tag); they are not
			// templated, same as the standalone hex,/base64, literals.
			return b.Bytes, nil
		}
		if b.NoVariable {
			return []byte(b.Raw), nil
		}
		s, err := template.ApplyTemplateString(b.Raw, scope)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case hurlfile.BodyOneline:
		s, err := template.ApplyTemplateString(b.Raw, scope)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case hurlfile.BodyBase64, hurlfile.BodyHex:
		return b.Bytes, nil
	case hurlfile.BodyFile:
		return os.ReadFile(resolvePath(fileDir, b.FileName))
	}
	return nil, fmt.Errorf("unknown body kind %d", b.Kind)
}

func resolvePath(dir, name string) string {
	if strings.HasPrefix(name, "/") || dir == "" {
		return name
	}
	return dir + string(os.PathSeparator) + name
}
