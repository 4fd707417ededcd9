package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/store"
	"github.com/jackzampolin/darkroom/internal/svcctx"
)

// maxSnapshotUpload caps uploaded image payloads.
const maxSnapshotUpload = 50 << 20 // 50 MiB

// UploadSnapshotEndpoint handles POST /api/shoots/{id}/frames/{frame_id}/snapshots.
// The request body is the raw image payload.
type UploadSnapshotEndpoint struct{}

var _ api.Endpoint = (*UploadSnapshotEndpoint)(nil)

func (e *UploadSnapshotEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/shoots/{id}/frames/{frame_id}/snapshots", e.handler
}

func (e *UploadSnapshotEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Upload a snapshot
//	@Description	Attach an image to a frame. The raw request body is the image payload.
//	@Tags			snapshots
//	@Accept			octet-stream
//	@Produce		json
//	@Param			id			path		string	true	"Shoot ID"
//	@Param			frame_id	path		string	true	"Frame ID"
//	@Success		201			{object}	store.Snapshot
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/shoots/{id}/frames/{frame_id}/snapshots [post]
func (e *UploadSnapshotEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	frameID := r.PathValue("frame_id")
	if id == "" || frameID == "" {
		writeError(w, http.StatusBadRequest, "shoot id and frame id are required")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read payload: "+err.Error())
		return
	}

	meta := map[string]any{"source": "upload"}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		meta["content_type"] = ct
	}

	st := svcctx.StoreFrom(r.Context())
	snap, err := st.AddSnapshot(r.Context(), id, frameID, data, meta)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (e *UploadSnapshotEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "add-snapshot <shoot_id> <frame_id> <image_file>",
		Short: "Upload an image as a snapshot on a frame",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[2], err)
			}

			contentType := "application/octet-stream"
			switch filepath.Ext(args[2]) {
			case ".jpg", ".jpeg":
				contentType = "image/jpeg"
			case ".png":
				contentType = "image/png"
			case ".webp":
				contentType = "image/webp"
			}

			client := api.NewClient(getServerURL())
			var snap store.Snapshot
			path := "/api/shoots/" + args[0] + "/frames/" + args[1] + "/snapshots"
			if err := client.PostRaw(cmd.Context(), path, contentType, data, &snap); err != nil {
				return err
			}
			return api.Output(snap)
		},
	}
}

// DeleteSnapshotEndpoint handles DELETE /api/shoots/{id}/frames/{frame_id}/snapshots/{snapshot_id}.
type DeleteSnapshotEndpoint struct{}

var _ api.Endpoint = (*DeleteSnapshotEndpoint)(nil)

func (e *DeleteSnapshotEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/shoots/{id}/frames/{frame_id}/snapshots/{snapshot_id}", e.handler
}

func (e *DeleteSnapshotEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a snapshot
//	@Description	Delete one snapshot and its stored image
//	@Tags			snapshots
//	@Produce		json
//	@Param			id			path	string	true	"Shoot ID"
//	@Param			frame_id	path	string	true	"Frame ID"
//	@Param			snapshot_id	path	string	true	"Snapshot ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/shoots/{id}/frames/{frame_id}/snapshots/{snapshot_id} [delete]
func (e *DeleteSnapshotEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	frameID := r.PathValue("frame_id")
	snapID := r.PathValue("snapshot_id")
	if id == "" || frameID == "" || snapID == "" {
		writeError(w, http.StatusBadRequest, "shoot, frame, and snapshot ids are required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteSnapshot(r.Context(), id, frameID, snapID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteSnapshotEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-snapshot <shoot_id> <frame_id> <snapshot_id>",
		Short: "Delete a snapshot and its image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/shoots/" + args[0] + "/frames/" + args[1] + "/snapshots/" + args[2]
			if err := client.Delete(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Printf("Deleted snapshot %s\n", args[2])
			return nil
		},
	}
}
