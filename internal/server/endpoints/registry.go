package endpoints

import (
	"github.com/jackzampolin/darkroom/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Shoot endpoints
		&CreateShootEndpoint{},
		&ListShootsEndpoint{},
		&GetShootEndpoint{},
		&UpdateShootEndpoint{},
		&DeleteShootEndpoint{},

		// Frame endpoints
		&AddFrameEndpoint{},
		&DeleteFrameEndpoint{},

		// Snapshot endpoints
		&UploadSnapshotEndpoint{},
		&DeleteSnapshotEndpoint{},
		&SnapshotImageEndpoint{},

		// Generation endpoints
		&GenerateEndpoint{},
		&ListStylesEndpoint{},
		&GetStyleEndpoint{},

		// Export endpoints
		&ExportShootEndpoint{},

		// Admin endpoints
		&RebuildIndexEndpoint{},
		&ReconcileEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
