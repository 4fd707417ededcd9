package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/darkroom/internal/api"
	"github.com/jackzampolin/darkroom/internal/prompts"
	"github.com/jackzampolin/darkroom/internal/svcctx"
)

// ListStylesResponse is the response for listing prompt styles.
type ListStylesResponse struct {
	Styles []prompts.Style `json:"styles"`
	Total  int             `json:"total"`
}

// ListStylesEndpoint handles GET /api/styles.
type ListStylesEndpoint struct{}

var _ api.Endpoint = (*ListStylesEndpoint)(nil)

func (e *ListStylesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/styles", e.handler
}

func (e *ListStylesEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List prompt styles
//	@Description	List the registered prompt templates with their variables
//	@Tags			styles
//	@Produce		json
//	@Success		200	{object}	ListStylesResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/styles [get]
func (e *ListStylesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	builder := svcctx.BuilderFrom(r.Context())
	if builder == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt builder not initialized")
		return
	}
	styles := builder.List()
	writeJSON(w, http.StatusOK, ListStylesResponse{Styles: styles, Total: len(styles)})
}

func (e *ListStylesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List available prompt styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListStylesResponse
			if err := client.Get(cmd.Context(), "/api/styles", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// StyleResponse is the response for a single prompt style.
type StyleResponse struct {
	Style   prompts.Style `json:"style"`
	Preview string        `json:"preview"`
}

// GetStyleEndpoint handles GET /api/styles/{key}.
type GetStyleEndpoint struct{}

var _ api.Endpoint = (*GetStyleEndpoint)(nil)

func (e *GetStyleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/styles/{key}", e.handler
}

func (e *GetStyleEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Get a prompt style
//	@Description	Get a prompt template with a preview rendered from empty parameters
//	@Tags			styles
//	@Produce		json
//	@Param			key	path		string	true	"Style key"
//	@Success		200	{object}	StyleResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/styles/{key} [get]
func (e *GetStyleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	builder := svcctx.BuilderFrom(r.Context())
	if builder == nil {
		writeError(w, http.StatusServiceUnavailable, "prompt builder not initialized")
		return
	}

	key := r.PathValue("key")
	style, ok := builder.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "style not found: "+key)
		return
	}

	// Preview shows the template rendered with no frame parameters.
	built, err := builder.Build(map[string]any{prompts.StyleParam: key})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StyleResponse{Style: style, Preview: built.Text})
}

func (e *GetStyleEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "style <key>",
		Short: "Show a prompt style with a rendered preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StyleResponse
			if err := client.Get(cmd.Context(), "/api/styles/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
