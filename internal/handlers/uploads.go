package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// bodies spill to temporary files.
const maxUploadMemory = 32 << 20

// saveUpload stores one multipart file under a fresh key in the given folder
// and returns its public URL. The original filename only contributes its
// extension.
func saveUpload(ctx context.Context, store MediaStore, fh *multipart.FileHeader, folder string) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer file.Close()

	name := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), path.Ext(fh.Filename))
	url, err := store.Save(ctx, name, fh.Header.Get("Content-Type"), file)
	if err != nil {
		return "", fmt.Errorf("save upload %s: %w", name, err)
	}
	return url, nil
}

// formFile returns the first file uploaded under the field name, or nil when
// the field is absent. ParseMultipartForm must have run first.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}
