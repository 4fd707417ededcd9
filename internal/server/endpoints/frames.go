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

// AddFrameRequest is the body for adding a frame to a shoot.
type AddFrameRequest struct {
	Params store.Params `json:"params"`
}

// AddFrameEndpoint handles POST /api/shoots/{id}/frames.
type AddFrameEndpoint struct{}

var _ api.Endpoint = (*AddFrameEndpoint)(nil)

func (e *AddFrameEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/shoots/{id}/frames", e.handler
}

func (e *AddFrameEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Add a frame
//	@Description	Add a new frame to the front of a shoot's frame list
//	@Tags			frames
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Shoot ID"
//	@Param			request	body		AddFrameRequest	true	"Frame generation parameters"
//	@Success		201		{object}	store.Frame
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/shoots/{id}/frames [post]
func (e *AddFrameEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "shoot id is required")
		return
	}

	var req AddFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st := svcctx.StoreFrom(r.Context())
	frame, err := st.AddFrame(r.Context(), id, req.Params)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, frame)
}

func (e *AddFrameEndpoint) Command(getServerURL func() string) *cobra.Command {
	var paramsJSON string
	cmd := &cobra.Command{
		Use:   "add-frame <shoot_id>",
		Short: "Add a frame to a shoot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := store.Params{}
			if paramsJSON != "" {
				if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
					return fmt.Errorf("invalid --params JSON: %w", err)
				}
			}

			client := api.NewClient(getServerURL())
			var frame store.Frame
			if err := client.Post(cmd.Context(), "/api/shoots/"+args[0]+"/frames", AddFrameRequest{Params: params}, &frame); err != nil {
				return err
			}
			return api.Output(frame)
		},
	}
	cmd.Flags().StringVar(&paramsJSON, "params", "", `Frame parameters as JSON, e.g. '{"style":"portrait","subject":"a dancer"}'`)
	return cmd
}

// DeleteFrameEndpoint handles DELETE /api/shoots/{id}/frames/{frame_id}.
type DeleteFrameEndpoint struct{}

var _ api.Endpoint = (*DeleteFrameEndpoint)(nil)

func (e *DeleteFrameEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/shoots/{id}/frames/{frame_id}", e.handler
}

func (e *DeleteFrameEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a frame
//	@Description	Delete a frame and the stored images of all its snapshots
//	@Tags			frames
//	@Produce		json
//	@Param			id			path	string	true	"Shoot ID"
//	@Param			frame_id	path	string	true	"Frame ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/shoots/{id}/frames/{frame_id} [delete]
func (e *DeleteFrameEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	frameID := r.PathValue("frame_id")
	if id == "" || frameID == "" {
		writeError(w, http.StatusBadRequest, "shoot id and frame id are required")
		return
	}

	st := svcctx.StoreFrom(r.Context())
	if err := st.DeleteFrame(r.Context(), id, frameID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteFrameEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-frame <shoot_id> <frame_id>",
		Short: "Delete a frame and its snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/shoots/"+args[0]+"/frames/"+args[1]); err != nil {
				return err
			}
			fmt.Printf("Deleted frame %s\n", args[1])
			return nil
		},
	}
}
