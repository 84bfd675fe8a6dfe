package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"tush00nka/filehub/internal/graph"
)

// multipartMemory is how much of a multipart body is kept in memory before
// file parts spill to disk.
const multipartMemory = 32 << 20

type UploadLimits struct {
	MaxFileSize int64
	MaxFiles    int
}

type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func tooLarge(format string, args ...any) error {
	return &requestError{status: http.StatusRequestEntityTooLarge, message: fmt.Sprintf(format, args...)}
}

// parseMultipartRequest implements the GraphQL multipart request format:
// an "operations" field, a "map" field and one part per file. The returned
// cleanup closes the files and removes temporary storage.
func parseMultipartRequest(w http.ResponseWriter, r *http.Request, limits UploadLimits) (graph.Request, func(), error) {
	var req graph.Request
	noop := func() {}

	maxBody := limits.MaxFileSize*int64(limits.MaxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return req, noop, tooLarge("Request body exceeds %d bytes", mbe.Limit)
		}
		return req, noop, badRequest("Invalid multipart request: %v", err)
	}
	form := r.MultipartForm

	cleanup := func() { _ = form.RemoveAll() }

	operations := form.Value["operations"]
	if len(operations) == 0 {
		return req, cleanup, badRequest("Missing multipart field 'operations'")
	}
	if strings.HasPrefix(strings.TrimSpace(operations[0]), "[") {
		return req, cleanup, badRequest("Batched operations are not supported")
	}
	if err := json.Unmarshal([]byte(operations[0]), &req); err != nil {
		return req, cleanup, badRequest("Invalid JSON in 'operations'")
	}

	var fileMap map[string][]string
	if raw := form.Value["map"]; len(raw) > 0 {
		if err := json.Unmarshal([]byte(raw[0]), &fileMap); err != nil {
			return req, cleanup, badRequest("Invalid JSON in 'map'")
		}
	}
	if len(fileMap) > limits.MaxFiles {
		return req, cleanup, tooLarge("%d files exceeds the limit of %d", len(fileMap), limits.MaxFiles)
	}

	var opened []multipart.File
	cleanup = func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = form.RemoveAll()
	}

	if req.Variables == nil {
		req.Variables = map[string]interface{}{}
	}

	for field, paths := range fileMap {
		headers := form.File[field]
		if len(headers) == 0 {
			return req, cleanup, badRequest("File missing in the request for key '%s'", field)
		}
		fh := headers[0]
		if fh.Size > limits.MaxFileSize {
			return req, cleanup, tooLarge("File '%s' exceeds the size limit of %d bytes", fh.Filename, limits.MaxFileSize)
		}

		f, err := fh.Open()
		if err != nil {
			return req, cleanup, fmt.Errorf("open upload %s: %w", field, err)
		}
		opened = append(opened, f)

		contentType, err := detectContentType(f, fh.Header.Get("Content-Type"))
		if err != nil {
			return req, cleanup, fmt.Errorf("detect content type: %w", err)
		}

		upload := &graph.Upload{
			File:        f,
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
		}
		for _, path := range paths {
			if err := setVariable(req.Variables, path, upload); err != nil {
				return req, cleanup, err
			}
		}
	}

	return req, cleanup, nil
}

// detectContentType trusts the client's type unless it is missing or
// generic, in which case the content is sniffed and f is rewound.
func detectContentType(f io.ReadSeeker, declared string) (string, error) {
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mt.String(), nil
}

// setVariable places value at an object path such as "variables.file" or
// "variables.files.1".
func setVariable(vars map[string]interface{}, path string, value interface{}) error {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "variables" {
		return badRequest("Invalid object path '%s'", path)
	}

	var cur interface{} = vars
	for i, key := range parts[1:] {
		last := i == len(parts)-2
		switch node := cur.(type) {
		case map[string]interface{}:
			if last {
				node[key] = value
				return nil
			}
			cur = node[key]
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return badRequest("Invalid object path '%s'", path)
			}
			if last {
				node[idx] = value
				return nil
			}
			cur = node[idx]
		default:
			return badRequest("Invalid object path '%s'", path)
		}
	}
	return nil
}
