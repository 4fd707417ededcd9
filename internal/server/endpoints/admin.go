package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/store"
	"github.com/jackzampolin/darkroom/internal/svcctx"
)

// RebuildIndexResponse reports the rebuilt catalog.
type RebuildIndexResponse struct {
	Shoots []store.IndexEntry `json:"shoots"`
	Total  int                `json:"total"`
}

// RebuildIndexEndpoint handles POST /api/index/rebuild. It forces a full
// scan of the shoot documents, dropping any stale index state.
type RebuildIndexEndpoint struct{}

var _ api.Endpoint = (*RebuildIndexEndpoint)(nil)

func (e *RebuildIndexEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/index/rebuild", e.handler
}

func (e *RebuildIndexEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Rebuild the catalog index
//	@Description	Rescan all shoot documents and rewrite the listing index
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	RebuildIndexResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/index/rebuild [post]
func (e *RebuildIndexEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	entries, err := st.RebuildIndex(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RebuildIndexResponse{Shoots: entries, Total: len(entries)})
}

func (e *RebuildIndexEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-index",
		Short: "Rebuild the shoot catalog index from documents on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RebuildIndexResponse
			if err := client.Post(cmd.Context(), "/api/index/rebuild", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReconcileResponse reports reclaimed blob directories.
type ReconcileResponse struct {
	Removed []string `json:"removed"`
	Total   int      `json:"total"`
}

// ReconcileEndpoint handles POST /api/store/reconcile. It deletes blob
// directories whose shoot document no longer exists.
type ReconcileEndpoint struct{}

var _ api.Endpoint = (*ReconcileEndpoint)(nil)

func (e *ReconcileEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/store/reconcile", e.handler
}

func (e *ReconcileEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Reconcile blob storage
//	@Description	Remove image directories left behind by interrupted deletes
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	ReconcileResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/store/reconcile [post]
func (e *ReconcileEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	removed, err := st.Reconcile(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{Removed: removed, Total: len(removed)})
}

func (e *ReconcileEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Reclaim orphaned image directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ReconcileResponse
			if err := client.Post(cmd.Context(), "/api/store/reconcile", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
