package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ArchiveHandler lists the settlement archives exported to object storage.
type ArchiveHandler struct {
	blobs  domain.BlobReader
	prefix string
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler listing objects under prefix.
func NewArchiveHandler(blobs domain.BlobReader, prefix string, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{blobs: blobs, prefix: prefix, logger: logger}
}

type archiveObject struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ListArchives returns the exported settlement archive objects.
// GET /api/archives
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	infos, err := h.blobs.List(r.Context(), h.prefix)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	objects := make([]archiveObject, 0, len(infos))
	for _, info := range infos {
		objects = append(objects, archiveObject{
			Path:         info.Path,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": objects})
}
