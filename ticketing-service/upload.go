package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/eventix/ticketing/ticketing-service/apperror"
	"github.com/eventix/ticketing/ticketing-service/imagestore"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const imageField = "image"

// imageUploader validates multipart jpeg uploads and stores them.
type imageUploader struct {
	store     imagestore.Store
	urlPrefix string
	maxSize   int64
	logger    *zap.Logger
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEMultipartPOSTForm
}

// limitBody caps the request body at the image limit plus room for the
// other form fields.
func (u *imageUploader) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.maxSize+1<<20)
}

// save stores the optional image form field under folder. It returns an
// empty URL when the request carries no image.
func (u *imageUploader) save(c *gin.Context, folder string) (string, error) {
	header, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperror.Invalid(imageField, "could not read upload")
	}

	if header.Size > u.maxSize {
		return "", apperror.Invalid(imageField, fmt.Sprintf("must be at most %d MB", u.maxSize>>20))
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".jpg" && ext != ".jpeg" {
		return "", apperror.Invalid(imageField, "only .jpg and .jpeg files are allowed")
	}

	f, err := header.Open()
	if err != nil {
		return "", apperror.Failed(err)
	}
	defer f.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(f, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", apperror.Failed(err)
	}
	if http.DetectContentType(sniff[:n]) != "image/jpeg" {
		return "", apperror.Invalid(imageField, "file content is not a jpeg image")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", apperror.Failed(err)
	}

	url, err := u.store.Save(c.Request.Context(), imagestore.NewKey(folder, ext), f, header.Size, "image/jpeg")
	if err != nil {
		return "", apperror.Failed(err)
	}
	return url, nil
}

// remove deletes a previously saved image. Failures are only logged.
func (u *imageUploader) remove(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key, ok := imagestore.KeyFromURL(url, u.urlPrefix)
	if !ok {
		return
	}
	if err := u.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		u.logger.Warn("failed to delete image", zap.String("key", key), zap.Error(err))
	}
}
