package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/store"
	"github.com/jackzampolin/darkroom/internal/svcctx"
)

// SnapshotImageEndpoint handles GET /api/shoots/{id}/images/{snapshot_id}.
type SnapshotImageEndpoint struct{}

var _ api.Endpoint = (*SnapshotImageEndpoint)(nil)

func (e *SnapshotImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/shoots/{id}/images/{snapshot_id}", e.handler
}

func (e *SnapshotImageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get snapshot image
//	@Description	Stream the stored image payload for a snapshot
//	@Tags			snapshots
//	@Produce		image/png
//	@Param			id			path		string	true	"Shoot ID"
//	@Param			snapshot_id	path		string	true	"Snapshot ID"
//	@Success		200			{file}		binary
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/shoots/{id}/images/{snapshot_id} [get]
func (e *SnapshotImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snapID := r.PathValue("snapshot_id")
	if id == "" || snapID == "" {
		writeError(w, http.StatusBadRequest, "shoot id and snapshot id are required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	data, contentType, err := st.Blobs().GetByID(id, snapID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("snapshot %s not found", snapID))
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	// Snapshots are immutable once written; new versions get new ids.
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (e *SnapshotImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "download-image <shoot_id> <snapshot_id>",
		Short: "Download a snapshot image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, contentType, err := client.GetRaw(cmd.Context(), "/api/shoots/"+args[0]+"/images/"+args[1])
			if err != nil {
				return err
			}

			path := outPath
			if path == "" {
				ext := ".bin"
				switch contentType {
				case "image/jpeg":
					ext = ".jpg"
				case "image/png":
					ext = ".png"
				case "image/webp":
					ext = ".webp"
				}
				path = args[1] + ext
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", path, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file path")
	return cmd
}
