package endpoints

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/export"
	"github.com/jackzampolin/darkroom/internal/svcctx"
)

// ExportResponse describes a completed contact sheet export.
type ExportResponse struct {
	Path   string `json:"path"`
	Images int    `json:"images"`
}

// ExportShootEndpoint handles POST /api/shoots/{id}/export. It assembles
// every snapshot image in the shoot into a contact sheet PDF under the
// home exports directory.
type ExportShootEndpoint struct{}

var _ api.Endpoint = (*ExportShootEndpoint)(nil)

func (e *ExportShootEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/shoots/{id}/export", e.handler
}

func (e *ExportShootEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Export a contact sheet
//	@Description	Assemble all snapshot images of a shoot into a PDF contact sheet
//	@Tags			export
//	@Produce		json
//	@Param			id	path		string	true	"Shoot ID"
//	@Success		200	{object}	ExportResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/shoots/{id}/export [post]
func (e *ExportShootEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "shoot id is required")
		return
	}

	ctx := r.Context()
	st := svcctx.StoreFrom(ctx)
	h := svcctx.HomeFrom(ctx)
	if h == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	shoot, err := st.GetShoot(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	outPath := filepath.Join(h.ExportsDir(), fmt.Sprintf("%s-%s.pdf", shoot.ID, time.Now().UTC().Format("20060102-150405")))
	count, err := export.ContactSheet(shoot, st.Blobs(), outPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if logger := svcctx.LoggerFrom(ctx); logger != nil {
		logger.Info("exported contact sheet", "shoot_id", id, "path", outPath, "images", count)
	}
	writeJSON(w, http.StatusOK, ExportResponse{Path: outPath, Images: count})
}

func (e *ExportShootEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <shoot_id>",
		Short: "Export a shoot's images as a contact sheet PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ExportResponse
			if err := client.Post(cmd.Context(), "/api/shoots/"+args[0]+"/export", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
