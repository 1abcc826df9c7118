package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/RichardKnop/agentrouter"
)

type ingestResponse struct {
	DocID  string `json:"doc_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Pages  int    `json:"pages"`
	Tables int    `json:"tables"`
	Chunks int    `json:"chunks"`
}

// Upload a PDF and index its chunks
// (POST /v1/documents)
func (a *Adapter) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.uploadTimeout)
	defer cancel()

	if r.ContentLength > a.maxUploadSize {
		renderJSONError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("file larger than %d bytes", a.maxUploadSize))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			renderJSONError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("file larger than %d bytes", a.maxUploadSize))
			return
		}
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("error reading file from request: %w", err))
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("only PDF files are supported"))
		return
	}

	var archived bool
	if a.uploads != nil {
		replacing, err := a.uploads.Exists(fileName)
		if err != nil {
			renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error checking upload: %w", err))
			return
		}
		if err := a.uploads.Write(fileName, file); err != nil {
			a.logger.Sugar().With("file", fileName, "error", err).Error("error storing upload")
			renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error storing upload: %w", err))
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error rewinding upload: %w", err))
			return
		}
		// a replaced file already lost its previous contents, only new ones are removed on failure
		archived = !replacing
	}

	result, err := a.agentRouter.Ingest(ctx, "uploads/"+fileName, file, a.now())
	if err != nil {
		a.logger.Sugar().With("file", fileName, "error", err).Error("error ingesting document")
		if archived {
			if err := a.uploads.Delete(fileName); err != nil {
				a.logger.Sugar().With("file", fileName, "error", err).Warn("error removing upload")
			}
		}
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error ingesting document: %w", err))
		return
	}

	status := http.StatusCreated
	if result.Status == agentrouter.IngestStatusUnchanged {
		status = http.StatusOK
	}

	renderJSONStatus(w, status, ingestResponse{
		DocID:  result.Doc.DocID,
		Title:  result.Doc.Title,
		Status: string(result.Status),
		Pages:  result.Doc.Pages,
		Tables: result.Doc.TableCount,
		Chunks: result.Chunks,
	})
}
