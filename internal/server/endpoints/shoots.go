package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/store"
	"github.com/jackzampolin/darkroom/internal/svcctx"
)

// CreateShootRequest is the body for creating a shoot.
type CreateShootRequest struct {
	Label string `json:"label"`
}

// CreateShootEndpoint handles POST /api/shoots.
type CreateShootEndpoint struct{}

var _ api.Endpoint = (*CreateShootEndpoint)(nil)

func (e *CreateShootEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/shoots", e.handler
}

func (e *CreateShootEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a shoot
//	@Description	Create a new empty shoot session
//	@Tags			shoots
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateShootRequest	true	"Shoot label"
//	@Success		201		{object}	store.Shoot
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/shoots [post]
func (e *CreateShootEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateShootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st := svcctx.StoreFrom(r.Context())
	shoot, err := st.CreateShoot(r.Context(), req.Label)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shoot)
}

func (e *CreateShootEndpoint) Command(getServerURL func() string) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new shoot",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var shoot store.Shoot
			if err := client.Post(cmd.Context(), "/api/shoots", CreateShootRequest{Label: label}, &shoot); err != nil {
				return err
			}
			return api.Output(shoot)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Label for the new shoot")
	return cmd
}

// ListShootsResponse is the response for listing shoots.
type ListShootsResponse struct {
	Shoots []store.IndexEntry `json:"shoots"`
	Total  int                `json:"total"`
}

// ListShootsEndpoint handles GET /api/shoots.
type ListShootsEndpoint struct{}

var _ api.Endpoint = (*ListShootsEndpoint)(nil)

func (e *ListShootsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/shoots", e.handler
}

func (e *ListShootsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List shoots
//	@Description	List all shoots from the catalog index, most recently updated first
//	@Tags			shoots
//	@Produce		json
//	@Success		200	{object}	ListShootsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/shoots [get]
func (e *ListShootsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	entries, err := st.ListShoots(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListShootsResponse{Shoots: entries, Total: len(entries)})
}

func (e *ListShootsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all shoots",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListShootsResponse
			if err := client.Get(cmd.Context(), "/api/shoots", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetShootEndpoint handles GET /api/shoots/{id}.
type GetShootEndpoint struct{}

var _ api.Endpoint = (*GetShootEndpoint)(nil)

func (e *GetShootEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/shoots/{id}", e.handler
}

func (e *GetShootEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get shoot by ID
//	@Description	Get the full shoot document with frames and snapshots
//	@Tags			shoots
//	@Produce		json
//	@Param			id	path		string	true	"Shoot ID"
//	@Success		200	{object}	store.Shoot
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/shoots/{id} [get]
func (e *GetShootEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "shoot id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	shoot, err := st.GetShoot(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shoot)
}

func (e *GetShootEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a shoot by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var shoot store.Shoot
			if err := client.Get(cmd.Context(), "/api/shoots/"+args[0], &shoot); err != nil {
				return err
			}
			return api.Output(shoot)
		},
	}
}

// UpdateShootRequest is the body for patching a shoot.
type UpdateShootRequest struct {
	Label *string `json:"label,omitempty"`
}

// UpdateShootEndpoint handles PATCH /api/shoots/{id}.
type UpdateShootEndpoint struct{}

var _ api.Endpoint = (*UpdateShootEndpoint)(nil)

func (e *UpdateShootEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/shoots/{id}", e.handler
}

func (e *UpdateShootEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a shoot
//	@Description	Patch mutable shoot fields. ID and creation time never change.
//	@Tags			shoots
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Shoot ID"
//	@Param			request	body		UpdateShootRequest	true	"Fields to update"
//	@Success		200		{object}	store.Shoot
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/shoots/{id} [patch]
func (e *UpdateShootEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "shoot id is required")
		return
	}

	var req UpdateShootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st := svcctx.StoreFrom(r.Context())
	shoot, err := st.UpdateShoot(r.Context(), id, store.ShootPatch{Label: req.Label})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shoot)
}

func (e *UpdateShootEndpoint) Command(getServerURL func() string) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a shoot's label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var shoot store.Shoot
			req := UpdateShootRequest{}
			if cmd.Flags().Changed("label") {
				req.Label = &label
			}
			if err := client.Patch(cmd.Context(), "/api/shoots/"+args[0], req, &shoot); err != nil {
				return err
			}
			return api.Output(shoot)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "New label")
	return cmd
}

// DeleteShootEndpoint handles DELETE /api/shoots/{id}.
type DeleteShootEndpoint struct{}

var _ api.Endpoint = (*DeleteShootEndpoint)(nil)

func (e *DeleteShootEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/shoots/{id}", e.handler
}

func (e *DeleteShootEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a shoot
//	@Description	Delete a shoot, its frames, and every stored snapshot image
//	@Tags			shoots
//	@Produce		json
//	@Param			id	path	string	true	"Shoot ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/shoots/{id} [delete]
func (e *DeleteShootEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "shoot id is required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteShoot(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteShootEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a shoot and all its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/shoots/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted shoot %s\n", args[0])
			return nil
		},
	}
}
