package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/providers"
	"github.com/jackzampolin/darkroom/internal/store"
	"github.com/jackzampolin/darkroom/internal/svcctx"
)

// GenerateRequest is the body for a generation request.
type GenerateRequest struct {
	// Provider names the configured generator. Empty uses the configured
	// default.
	Provider string `json:"provider,omitempty"`
	// Size overrides the provider's default image size.
	Size string `json:"size,omitempty"`
}

// GenerateResponse describes a completed generation.
type GenerateResponse struct {
	Snapshot *store.Snapshot `json:"snapshot"`
	Prompt   string          `json:"prompt"`
	Style    string          `json:"style"`
	Provider string          `json:"provider"`
	Model    string          `json:"model"`
	Attempts int             `json:"attempts"`
	Duration string          `json:"duration"`
}

// GenerateEndpoint handles POST /api/shoots/{id}/frames/{frame_id}/generate.
// It builds a prompt from the frame's params, calls the provider, and
// stores the returned image as a new snapshot on the frame.
type GenerateEndpoint struct{}

var _ api.Endpoint = (*GenerateEndpoint)(nil)

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/shoots/{id}/frames/{frame_id}/generate", e.handler
}

func (e *GenerateEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Generate a snapshot
//	@Description	Build a prompt from the frame's parameters, call the image provider, and attach the result as a new snapshot
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Shoot ID"
//	@Param			frame_id	path		string			true	"Frame ID"
//	@Param			request		body		GenerateRequest	false	"Generation options"
//	@Success		201			{object}	GenerateResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Router			/api/shoots/{id}/frames/{frame_id}/generate [post]
func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	frameID := r.PathValue("frame_id")
	if id == "" || frameID == "" {
		writeError(w, http.StatusBadRequest, "shoot id and frame id are required")
		return
	}

	var req GenerateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	ctx := r.Context()
	st := svcctx.StoreFrom(ctx)
	builder := svcctx.BuilderFrom(ctx)
	registry := svcctx.RegistryFrom(ctx)
	logger := svcctx.LoggerFrom(ctx)

	shoot, err := st.GetShoot(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	frame := shoot.FindFrame(frameID)
	if frame == nil {
		writeError(w, http.StatusNotFound, "frame not found: "+frameID)
		return
	}

	prompt, err := builder.Build(frame.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to build prompt: "+err.Error())
		return
	}

	providerName := req.Provider
	size := req.Size
	if cm := svcctx.ConfigFrom(ctx); cm != nil {
		defaults := cm.Get().Defaults
		if providerName == "" {
			providerName = defaults.Provider
		}
		if size == "" {
			size = defaults.Size
		}
	}
	gen, err := registry.Get(providerName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := registry.Acquire(ctx, providerName); err != nil {
		writeError(w, http.StatusTooManyRequests, "rate limit wait: "+err.Error())
		return
	}

	result, err := gen.Generate(ctx, &providers.GenerateRequest{
		Prompt:    prompt.Text,
		Size:      size,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "generation failed: "+err.Error())
		return
	}

	meta := map[string]any{
		"source":   "generated",
		"prompt":   prompt.Text,
		"style":    prompt.Style,
		"provider": result.Provider,
		"model":    result.ModelUsed,
	}
	snap, err := st.AddSnapshot(ctx, id, frameID, result.Image, meta)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if logger != nil {
		logger.Info("generated snapshot",
			"shoot_id", id,
			"frame_id", frameID,
			"snapshot_id", snap.ID,
			"provider", result.Provider,
			"duration", result.ExecutionTime.Round(time.Millisecond))
	}

	writeJSON(w, http.StatusCreated, GenerateResponse{
		Snapshot: snap,
		Prompt:   prompt.Text,
		Style:    prompt.Style,
		Provider: result.Provider,
		Model:    result.ModelUsed,
		Attempts: result.Attempts,
		Duration: result.ExecutionTime.Round(time.Millisecond).String(),
	})
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var provider, size string
	cmd := &cobra.Command{
		Use:   "generate <shoot_id> <frame_id>",
		Short: "Generate an image for a frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp GenerateResponse
			path := "/api/shoots/" + args[0] + "/frames/" + args[1] + "/generate"
			if err := client.Post(cmd.Context(), path, GenerateRequest{Provider: provider, Size: size}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Provider to use (default from config)")
	cmd.Flags().StringVar(&size, "size", "", "Image size, e.g. 1024x1024")
	return cmd
}
