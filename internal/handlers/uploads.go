package handlers

import (
	"mime/multipart"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/archive"
)

// saveAndValidate streams the upload to disk and runs the archive check. A
// rejected file never survives on disk.
func saveAndValidate(service *app.Service, kind string, file multipart.File, minEntries int) (string, *archive.Result, error) {
	path, err := service.Files.Save(kind, file)
	if err != nil {
		return "", nil, err
	}

	result, err := archive.Validate(path, minEntries)
	if err != nil {
		if rmErr := service.Files.Remove(path); rmErr != nil {
			logger.Error.Printf("Failed to remove rejected upload %s: %v", path, rmErr)
		}
		return "", nil, err
	}

	return path, result, nil
}
